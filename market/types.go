// Package market defines the domain types shared by the replay,
// simulation and execution components.
//
// Prices are probabilities: every market is a binary-outcome share
// market where the YES and NO prices sum to 1, so a tradable price
// always lies strictly inside (0, 1).
package market

import (
	"encoding/json"
	"fmt"
	"time"
)

// Side is the direction of an order or position.
type Side int8

const (
	Buy  Side = +1
	Sell Side = -1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	}
	return fmt.Sprintf("Side(%d)", int8(s))
}

// Valid reports whether s is one of the two defined sides.
func (s Side) Valid() bool { return s == Buy || s == Sell }

func (s Side) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Side) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw {
	case "BUY":
		*s = Buy
	case "SELL":
		*s = Sell
	default:
		return fmt.Errorf("unknown side %q", raw)
	}
	return nil
}

// TradeEvent is one observed trade from a tracked market participant.
// Events are immutable and consumed exactly once by the replay engine.
type TradeEvent struct {
	ID             string    `json:"id"`
	MarketID       string    `json:"market_id"`
	Trader         string    `json:"trader,omitempty"`
	Side           Side      `json:"side"`
	ReferencePrice float64   `json:"price"`
	Size           float64   `json:"size"`
	SizeQuote      float64   `json:"size_quote"`
	ObservedAt     time.Time `json:"observed_at"`
}

// IntendedTrade is the sized order the engine wants to place, after
// position-sizing caps have been applied.
type IntendedTrade struct {
	MarketID       string
	Side           Side
	Size           float64
	ReferencePrice float64
}

// Fill is a realized execution. Slippage is the signed difference
// ExecutedPrice - ReferencePrice: positive means the fill was worse than
// quoted for a buy and better for a sell.
type Fill struct {
	MarketID       string    `json:"market_id"`
	Side           Side      `json:"side"`
	Size           float64   `json:"size"`
	ReferencePrice float64   `json:"reference_price"`
	ExecutedPrice  float64   `json:"executed_price"`
	Cost           float64   `json:"cost"`
	Fee            float64   `json:"fee"`
	Slippage       float64   `json:"slippage"`
	At             time.Time `json:"at"`
}

// TotalCost is the full balance debit for a buy fill.
func (f Fill) TotalCost() float64 { return f.Cost + f.Fee }

// Position is an open position. It is owned exclusively by the ledger
// until closed and is never added to: a second signal for the same
// market while one is open is a policy decision made by the caller.
type Position struct {
	MarketID   string    `json:"market_id"`
	Side       Side      `json:"side"`
	EntryPrice float64   `json:"entry_price"`
	Size       float64   `json:"size"`
	OpenedAt   time.Time `json:"opened_at"`
}

// ClosedPosition is the terminal, immutable record of a position.
type ClosedPosition struct {
	Position  Position  `json:"position"`
	ExitPrice float64   `json:"exit_price"`
	PnL       float64   `json:"pnl"`
	ClosedAt  time.Time `json:"closed_at"`
}

// Close converts p into its terminal record at exitPrice.
// PnL = (exit - entry) * size for longs, sign-flipped for shorts.
func (p Position) Close(exitPrice float64, at time.Time) ClosedPosition {
	pnl := float64(p.Side) * (exitPrice - p.EntryPrice) * p.Size
	return ClosedPosition{
		Position:  p,
		ExitPrice: exitPrice,
		PnL:       pnl,
		ClosedAt:  at,
	}
}
