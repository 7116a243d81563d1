// Package journal persists the engine's immutable records: fills as
// they execute and positions as they close. Records are append-only;
// where they end up (JSONL file, CSV, SQLite) is a backend choice.
package journal

import (
	"time"

	"github.com/clde-code/polycopy/market"
)

// FillRecord is one execution attempt. Failed attempts are recorded
// too, with Success false and the error text.
type FillRecord struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Event     market.TradeEvent  `json:"trade"`
	Fill      *market.Fill       `json:"executed,omitempty"`
	Success   bool               `json:"success"`
	Error     string             `json:"error,omitempty"`
}

// CloseRecord is one terminal position.
type CloseRecord struct {
	ID        string                `json:"id"`
	Timestamp time.Time             `json:"timestamp"`
	Closed    market.ClosedPosition `json:"closed"`
}

type Journal interface {
	RecordFill(FillRecord) error
	RecordClose(CloseRecord) error
	Close() error
}

// Nop discards everything. Useful in tests and dry runs.
type Nop struct{}

func (Nop) RecordFill(FillRecord) error   { return nil }
func (Nop) RecordClose(CloseRecord) error { return nil }
func (Nop) Close() error                  { return nil }

// Multi fans every record out to all children, stopping at the first
// error.
type Multi []Journal

func (m Multi) RecordFill(r FillRecord) error {
	for _, j := range m {
		if err := j.RecordFill(r); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) RecordClose(r CloseRecord) error {
	for _, j := range m {
		if err := j.RecordClose(r); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) Close() error {
	var first error
	for _, j := range m {
		if err := j.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
