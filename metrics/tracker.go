package metrics

import (
	"sync"

	"github.com/clde-code/polycopy/market"
)

// Tracker is the live-mode running view: closes are recorded as they
// happen and the report is recomputed on read. Storing the sequence and
// recomputing keeps the incremental view definitionally identical to a
// full recomputation.
type Tracker struct {
	mu     sync.Mutex
	agg    Aggregator
	closed []market.ClosedPosition

	initialBalance float64
}

func NewTracker(agg Aggregator, initialBalance float64) *Tracker {
	return &Tracker{agg: agg, initialBalance: initialBalance}
}

func (t *Tracker) Record(c market.ClosedPosition) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = append(t.closed, c)
}

func (t *Tracker) Report() Report {
	t.mu.Lock()
	closed := make([]market.ClosedPosition, len(t.closed))
	copy(closed, t.closed)
	initial := t.initialBalance
	agg := t.agg
	t.mu.Unlock()

	return agg.Report(closed, initial)
}
