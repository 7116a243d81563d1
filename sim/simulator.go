package sim

import (
	"errors"
	"fmt"
	"time"

	"github.com/clde-code/polycopy/market"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrPriceOutOfBounds    = errors.New("reference price out of bounds")
)

// Simulator turns an intended trade into a Fill. It is pure: the balance
// check runs against the snapshot the caller passes in, and committing
// the fill (debiting the balance, opening the position) stays with the
// caller so check and commit can share one critical section.
type Simulator struct {
	Model   Model
	FeeRate float64 // fraction of cost, e.g. 0.002; 0 disables fees
}

func NewSimulator(model Model, feeRate float64) *Simulator {
	return &Simulator{Model: model, FeeRate: feeRate}
}

// Execute simulates filling the intended trade against the impact model.
//
// The executed price is clamped to [0, 1]: a linear or percentage push
// can cross the binary-share bound for large sizes, and an unclamped
// price would corrupt every downstream P&L figure. The clamp is policy,
// not a silent fix, which is why slippage is computed from the clamped
// price actually used.
func (s *Simulator) Execute(intent market.IntendedTrade, available float64, at time.Time) (market.Fill, error) {
	if !market.ValidPrice(intent.ReferencePrice) {
		return market.Fill{}, fmt.Errorf("%w: %v", ErrPriceOutOfBounds, intent.ReferencePrice)
	}

	raw, err := s.Model.ExecutionPrice(intent.Side, intent.Size, intent.ReferencePrice)
	if err != nil {
		return market.Fill{}, err
	}
	executed := market.ClampPrice(raw)

	cost := intent.Size * executed
	fee := cost * s.FeeRate

	if intent.Side == market.Buy && cost+fee > available {
		return market.Fill{}, fmt.Errorf("%w: need %.4f, have %.4f",
			ErrInsufficientBalance, cost+fee, available)
	}

	return market.Fill{
		MarketID:       intent.MarketID,
		Side:           intent.Side,
		Size:           intent.Size,
		ReferencePrice: intent.ReferencePrice,
		ExecutedPrice:  executed,
		Cost:           cost,
		Fee:            fee,
		Slippage:       executed - intent.ReferencePrice,
		At:             at,
	}, nil
}
