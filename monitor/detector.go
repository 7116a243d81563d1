package monitor

import (
	"time"

	"github.com/google/uuid"

	"github.com/clde-code/polycopy/market"
)

// PositionSnapshot is one holding in a tracked trader's account at a
// point in time.
type PositionSnapshot struct {
	MarketID   string      `json:"market_id"`
	Side       market.Side `json:"side"`
	Size       float64     `json:"size"`
	EntryPrice float64     `json:"entry_price"`
	Timestamp  time.Time   `json:"timestamp"`
}

// TraderState is a full position snapshot for one trader.
type TraderState struct {
	Trader    string             `json:"trader"`
	Positions []PositionSnapshot `json:"positions"`
	FetchedAt time.Time          `json:"fetched_at"`
}

// Detector turns successive position snapshots into trade events. A
// position that appears, or grows, between two snapshots is reported
// as a trade for the new size (or the size delta). Shrinking positions
// are not reported; exits are the tracked trader's business, the copy
// decision applies to entries only.
//
// The first snapshot for a trader seeds state and reports nothing.
type Detector struct {
	last map[string]TraderState
}

func NewDetector() *Detector {
	return &Detector{last: make(map[string]TraderState)}
}

// Observe records the snapshot and returns the trades implied by the
// change from the previous one.
func (d *Detector) Observe(state TraderState) []market.TradeEvent {
	prev, seen := d.last[state.Trader]
	d.last[state.Trader] = state
	if !seen {
		return nil
	}
	return diff(prev, state)
}

func diff(prev, current TraderState) []market.TradeEvent {
	prevByMarket := make(map[string]PositionSnapshot, len(prev.Positions))
	for _, p := range prev.Positions {
		prevByMarket[p.MarketID] = p
	}

	var events []market.TradeEvent
	for _, pos := range current.Positions {
		size := pos.Size
		if before, ok := prevByMarket[pos.MarketID]; ok {
			if pos.Size <= before.Size {
				continue
			}
			size = pos.Size - before.Size
		}
		events = append(events, market.TradeEvent{
			ID:             uuid.NewString(),
			MarketID:       pos.MarketID,
			Trader:         current.Trader,
			Side:           pos.Side,
			ReferencePrice: pos.EntryPrice,
			Size:           size,
			SizeQuote:      size * pos.EntryPrice,
			ObservedAt:     pos.Timestamp,
		})
	}
	return events
}
