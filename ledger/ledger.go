// Package ledger owns the account balance and the open/closed position
// books. All mutation happens behind one mutex so a balance check and
// the commit that depends on it can never interleave with another fill.
package ledger

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/clde-code/polycopy/market"
)

var (
	// ErrPositionAlreadyOpen signals the single-position-per-market
	// invariant. It is a policy signal, not a failure: the caller
	// decides whether to skip, queue, or net the new signal.
	ErrPositionAlreadyOpen = errors.New("position already open for market")
	ErrNoSuchPosition      = errors.New("no open position for market")
	// ErrOrderInFlight means funds are held for an unresolved order on
	// the market. Policy-wise it is treated like an open position.
	ErrOrderInFlight = errors.New("order already in flight for market")
	ErrNoReservation = errors.New("no reservation for market")
)

// Ledger is the single coordination point for capital and exposure.
// It lives for the whole run: process-wide in live mode, per-run in
// backtest mode.
type Ledger struct {
	mu       sync.Mutex
	balance  float64
	open     map[string]market.Position
	reserved map[string]float64
	closed   []market.ClosedPosition
}

func New(initialBalance float64) *Ledger {
	return &Ledger{
		balance:  initialBalance,
		open:     make(map[string]market.Position),
		reserved: make(map[string]float64),
	}
}

// Balance returns the current cash balance. For sizing decisions use
// Transact instead: a balance read outside the critical section can go
// stale before the debit lands.
func (l *Ledger) Balance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// Transact runs fn with a consistent balance snapshot and commits the
// fill it returns, all under one lock. Sizing, the impact simulation and
// the balance check all happen inside fn (pure), so two concurrent
// trades can never both pass a relative-cap check against the same
// stale balance and jointly overspend.
//
// The open-position check runs before fn: a second signal for a market
// with an open position returns ErrPositionAlreadyOpen without sizing.
func (l *Ledger) Transact(marketID string, fn func(balance float64) (market.Fill, error)) (market.Fill, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.open[marketID]; exists {
		return market.Fill{}, ErrPositionAlreadyOpen
	}
	if _, exists := l.reserved[marketID]; exists {
		return market.Fill{}, ErrOrderInFlight
	}

	fill, err := fn(l.balance)
	if err != nil {
		return market.Fill{}, err
	}

	l.commitLocked(fill)
	return fill, nil
}

// Hold runs fn like Transact but, instead of opening a position,
// debits the projected cost of the fill fn returns and parks it as a
// reservation for the market. The sizing, the balance check and the
// debit share the critical section, so two in-flight orders can never
// both pass their checks against the same stale balance.
//
// Every successful Hold must be resolved by exactly one Settle (order
// filled) or Release (order failed, cancelled or timed out).
func (l *Ledger) Hold(marketID string, fn func(balance float64) (market.Fill, error)) (market.Fill, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.open[marketID]; exists {
		return market.Fill{}, ErrPositionAlreadyOpen
	}
	if _, exists := l.reserved[marketID]; exists {
		return market.Fill{}, ErrOrderInFlight
	}

	fill, err := fn(l.balance)
	if err != nil {
		return market.Fill{}, err
	}

	var amount float64
	if fill.Side == market.Buy {
		amount = fill.TotalCost()
	}
	l.balance -= amount
	l.reserved[marketID] = amount
	return fill, nil
}

// Settle resolves a reservation with the realized fill: the held amount
// is returned and the fill commits at its actual price, all under one
// lock.
func (l *Ledger) Settle(marketID string, fill market.Fill) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	amount, ok := l.reserved[marketID]
	if !ok {
		return ErrNoReservation
	}
	delete(l.reserved, marketID)
	l.balance += amount

	l.commitLocked(fill)
	return nil
}

// Release refunds a reservation whose order did not fill.
func (l *Ledger) Release(marketID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	amount, ok := l.reserved[marketID]
	if !ok {
		return ErrNoReservation
	}
	delete(l.reserved, marketID)
	l.balance += amount
	return nil
}

// commitLocked applies the fill's balance delta and opens the position.
// Either the full update happens or none of it does; errors are decided
// before this point.
func (l *Ledger) commitLocked(fill market.Fill) {
	if fill.Side == market.Buy {
		l.balance -= fill.TotalCost()
	} else {
		l.balance += fill.Cost - fill.Fee
	}

	l.open[fill.MarketID] = market.Position{
		MarketID:   fill.MarketID,
		Side:       fill.Side,
		EntryPrice: fill.ExecutedPrice,
		Size:       fill.Size,
		OpenedAt:   fill.At,
	}
}

// HasOpen reports whether the market has an open position or an
// in-flight reservation. Advisory only: the authoritative check is
// inside Transact and Hold.
func (l *Ledger) HasOpen(marketID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.open[marketID]; ok {
		return true
	}
	_, ok := l.reserved[marketID]
	return ok
}

// Close converts the market's open position into its terminal record at
// exitPrice and credits size * exitPrice to the balance.
func (l *Ledger) Close(marketID string, exitPrice float64, at time.Time) (market.ClosedPosition, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeLocked(marketID, exitPrice, at)
}

func (l *Ledger) closeLocked(marketID string, exitPrice float64, at time.Time) (market.ClosedPosition, error) {
	pos, ok := l.open[marketID]
	if !ok {
		return market.ClosedPosition{}, ErrNoSuchPosition
	}

	closed := pos.Close(exitPrice, at)
	l.balance += pos.Size * exitPrice
	delete(l.open, marketID)
	l.closed = append(l.closed, closed)
	return closed, nil
}

// CloseAll drains the open-position set, marking each position to the
// price the lookup supplies (entry price when the lookup has none).
// Markets close in sorted order so a replay is bit-for-bit reproducible.
// Used once at the end of a backtest run; live positions stay open until
// an explicit signal closes them.
func (l *Ledger) CloseAll(lookup func(marketID string) (float64, bool), at time.Time) []market.ClosedPosition {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make([]string, 0, len(l.open))
	for id := range l.open {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]market.ClosedPosition, 0, len(ids))
	for _, id := range ids {
		exit, ok := lookup(id)
		if !ok {
			exit = l.open[id].EntryPrice
		}
		closed, err := l.closeLocked(id, exit, at)
		if err != nil {
			continue // unreachable: id came from the open set
		}
		out = append(out, closed)
	}
	return out
}

// OpenPositions returns a sorted copy of the open book.
func (l *Ledger) OpenPositions() []market.Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]market.Position, 0, len(l.open))
	for _, p := range l.open {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MarketID < out[j].MarketID })
	return out
}

// Closed returns a copy of the closed-position sequence in closing
// order.
func (l *Ledger) Closed() []market.ClosedPosition {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]market.ClosedPosition, len(l.closed))
	copy(out, l.closed)
	return out
}
