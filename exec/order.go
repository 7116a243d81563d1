// Package exec drives a submitted order from placement through polling
// to exactly one terminal resolution. Only live mode uses it; backtest
// replay has no network roundtrip and calls the simulator directly.
package exec

import (
	"errors"
	"time"

	"github.com/clde-code/polycopy/market"
)

// OrderIntent is the finalized order handed to the venue collaborator.
type OrderIntent struct {
	MarketID   string
	Side       market.Side
	Size       float64
	LimitPrice float64
}

// VenueStatus is the order state a venue poll reports.
type VenueStatus string

const (
	VenueOpen            VenueStatus = "OPEN"
	VenueFilled          VenueStatus = "FILLED"
	VenuePartiallyFilled VenueStatus = "PARTIALLY_FILLED"
	VenueCancelled       VenueStatus = "CANCELLED"
)

// StatusReport is one poll result.
type StatusReport struct {
	Status     VenueStatus
	FilledSize float64
	AvgPrice   float64
}

// TerminalStatus is the resolution of a lifecycle. Exactly one is
// recorded per submitted order.
type TerminalStatus string

const (
	StatusFilled          TerminalStatus = "FILLED"
	StatusPartiallyFilled TerminalStatus = "PARTIALLY_FILLED"
	StatusCancelled       TerminalStatus = "CANCELLED"
	// StatusTimedOut means the confirmation window elapsed with the
	// order still open; a best-effort cancel was already issued.
	StatusTimedOut TerminalStatus = "TIMED_OUT"
)

// Outcome is the terminal record of one order lifecycle.
type Outcome struct {
	OrderID     string
	Intent      OrderIntent
	Status      TerminalStatus
	FilledSize  float64
	FillPrice   float64
	SubmittedAt time.Time
	ResolvedAt  time.Time
}

// ErrExecutionFailed reports a retry budget exhausted on transport
// errors. It is fatal for the order it names and isolated from every
// other in-flight order.
var ErrExecutionFailed = errors.New("order execution failed")
