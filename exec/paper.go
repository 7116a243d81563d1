package exec

import (
	"context"
	"fmt"
	"sync"

	"github.com/clde-code/polycopy/internal/id"
)

// PaperVenue is an in-process Venue that fills every order at its limit
// price on the first status poll. It stands in for the real CLOB client
// in paper-trading runs and tests.
type PaperVenue struct {
	mu     sync.Mutex
	orders map[string]OrderIntent
}

func NewPaperVenue() *PaperVenue {
	return &PaperVenue{orders: make(map[string]OrderIntent)}
}

func (v *PaperVenue) PlaceOrder(_ context.Context, intent OrderIntent) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	orderID := id.New()
	v.orders[orderID] = intent
	return orderID, nil
}

func (v *PaperVenue) OrderStatus(_ context.Context, orderID string) (StatusReport, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	intent, ok := v.orders[orderID]
	if !ok {
		return StatusReport{}, fmt.Errorf("paper venue: unknown order %s", orderID)
	}
	return StatusReport{
		Status:     VenueFilled,
		FilledSize: intent.Size,
		AvgPrice:   intent.LimitPrice,
	}, nil
}

func (v *PaperVenue) CancelOrder(_ context.Context, orderID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.orders[orderID]; !ok {
		return fmt.Errorf("paper venue: unknown order %s", orderID)
	}
	delete(v.orders, orderID)
	return nil
}
