package replay

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/clde-code/polycopy/exec"
	"github.com/clde-code/polycopy/internal/id"
	"github.com/clde-code/polycopy/internal/obs"
	"github.com/clde-code/polycopy/journal"
	"github.com/clde-code/polycopy/ledger"
	"github.com/clde-code/polycopy/market"
	"github.com/clde-code/polycopy/metrics"
	"github.com/clde-code/polycopy/monitor"
	"github.com/clde-code/polycopy/risk"
	"github.com/clde-code/polycopy/sim"
)

// Live copies incoming trade events through real order execution.
//
// Events are dispatched to a fixed worker pool keyed by a hash of the
// market id, so two events for the same market are always handled by
// the same worker in arrival order. Events for different markets
// proceed concurrently; an order failure is isolated to its market.
type Live struct {
	Sizer    *risk.Sizer
	Sim      *sim.Simulator
	Ledger   *ledger.Ledger
	Executor *exec.Executor
	Filter   *monitor.Filter
	Journal  journal.Journal
	Tracker  *metrics.Tracker
	Logger   *slog.Logger

	// Workers is the pool size. QueueDepth is each worker's buffered
	// channel capacity; a full queue applies backpressure to the
	// dispatcher rather than dropping events.
	Workers    int
	QueueDepth int
}

// Run dispatches events until the channel closes or ctx is cancelled,
// then drains the workers.
func (l *Live) Run(ctx context.Context, events <-chan market.TradeEvent) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	jnl := l.Journal
	if jnl == nil {
		jnl = journal.Nop{}
	}

	workers := l.Workers
	if workers <= 0 {
		workers = 4
	}
	depth := l.QueueDepth
	if depth <= 0 {
		depth = 16
	}

	queues := make([]chan market.TradeEvent, workers)
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan market.TradeEvent, depth)
		wg.Add(1)
		go func(q <-chan market.TradeEvent) {
			defer wg.Done()
			for ev := range q {
				l.handle(ctx, ev, jnl, logger)
			}
		}(queues[i])
	}

	var runErr error
dispatch:
	for {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
			break dispatch
		case ev, ok := <-events:
			if !ok {
				break dispatch
			}
			obs.TradesDetected.Inc()
			queues[workerFor(ev.MarketID, workers)] <- ev
		}
	}

	for _, q := range queues {
		close(q)
	}
	wg.Wait()
	return runErr
}

// workerFor maps a market id onto a worker index. FNV keeps the
// mapping stable for the lifetime of the pool.
func workerFor(marketID string, workers int) int {
	h := fnv.New32a()
	h.Write([]byte(marketID))
	return int(h.Sum32() % uint32(workers))
}

func (l *Live) handle(ctx context.Context, ev market.TradeEvent, jnl journal.Journal, logger *slog.Logger) {
	if l.Filter != nil && !l.Filter.ShouldCopy(ev) {
		obs.TradesSkipped.WithLabelValues("filtered").Inc()
		return
	}
	// Sizing, the oracle simulation and the balance debit share the
	// ledger's critical section: the projected cost is held before
	// the order goes out, so another worker sizing a different market
	// sees the balance net of this order. The hold settles to the
	// realized fill or is released when the order dies.
	oracle, err := l.Ledger.Hold(ev.MarketID, func(balance float64) (market.Fill, error) {
		size, err := l.Sizer.Size(ev.Size, balance)
		if err != nil {
			return market.Fill{}, err
		}
		return l.Sim.Execute(market.IntendedTrade{
			MarketID:       ev.MarketID,
			Side:           ev.Side,
			Size:           size,
			ReferencePrice: ev.ReferencePrice,
		}, balance, ev.ObservedAt)
	})
	if err != nil {
		if errors.Is(err, ledger.ErrPositionAlreadyOpen) || errors.Is(err, ledger.ErrOrderInFlight) {
			obs.TradesSkipped.WithLabelValues("position_open").Inc()
			logger.Info("skipping signal, position already open", "market_id", ev.MarketID)
			return
		}
		obs.TradesSkipped.WithLabelValues(skipReason(err)).Inc()
		logger.Warn("trade skipped", "market_id", ev.MarketID, "error", err)
		return
	}

	outcome, err := l.Executor.Execute(ctx, exec.OrderIntent{
		MarketID:   ev.MarketID,
		Side:       ev.Side,
		Size:       oracle.Size,
		LimitPrice: oracle.ExecutedPrice,
	})
	if err != nil {
		l.release(ev.MarketID, logger)
		obs.OrderFailures.WithLabelValues("error").Inc()
		logger.Error("order failed", "market_id", ev.MarketID, "error", err)
		l.recordFailure(jnl, ev, err.Error(), logger)
		return
	}

	switch outcome.Status {
	case exec.StatusFilled, exec.StatusPartiallyFilled:
	default:
		l.release(ev.MarketID, logger)
		obs.OrderFailures.WithLabelValues(strings.ToLower(string(outcome.Status))).Inc()
		logger.Warn("order not filled",
			"market_id", ev.MarketID,
			"status", string(outcome.Status))
		l.recordFailure(jnl, ev, "order "+string(outcome.Status), logger)
		return
	}

	obs.FillLatency.Observe(outcome.ResolvedAt.Sub(outcome.SubmittedAt).Seconds())

	cost := outcome.FilledSize * outcome.FillPrice
	fill := market.Fill{
		MarketID:       ev.MarketID,
		Side:           ev.Side,
		Size:           outcome.FilledSize,
		ReferencePrice: ev.ReferencePrice,
		ExecutedPrice:  outcome.FillPrice,
		Cost:           cost,
		Fee:            cost * l.Sim.FeeRate,
		Slippage:       outcome.FillPrice - ev.ReferencePrice,
		At:             outcome.ResolvedAt,
	}

	if err := l.Ledger.Settle(ev.MarketID, fill); err != nil {
		logger.Error("fill not booked", "market_id", ev.MarketID, "error", err)
		l.recordFailure(jnl, ev, err.Error(), logger)
		return
	}

	obs.TradesCopied.WithLabelValues(ev.Side.String()).Inc()
	obs.Balance.Set(l.Ledger.Balance())
	obs.OpenPositions.Set(float64(len(l.Ledger.OpenPositions())))

	if err := jnl.RecordFill(journal.FillRecord{
		ID:        id.New(),
		Timestamp: fill.At,
		Event:     ev,
		Fill:      &fill,
		Success:   true,
	}); err != nil {
		logger.Error("journal write failed", "error", err)
	}

	logger.Info("trade copied",
		"market_id", ev.MarketID,
		"side", ev.Side.String(),
		"size", fill.Size,
		"executed_price", fill.ExecutedPrice,
		"slippage", fill.Slippage)
}

// ClosePosition exits a live position at price and records the close.
func (l *Live) ClosePosition(marketID string, price float64, at time.Time) (market.ClosedPosition, error) {
	closed, err := l.Ledger.Close(marketID, price, at)
	if err != nil {
		return market.ClosedPosition{}, err
	}
	if l.Tracker != nil {
		l.Tracker.Record(closed)
	}
	obs.Balance.Set(l.Ledger.Balance())
	obs.OpenPositions.Set(float64(len(l.Ledger.OpenPositions())))

	jnl := l.Journal
	if jnl == nil {
		jnl = journal.Nop{}
	}
	if err := jnl.RecordClose(journal.CloseRecord{
		ID:        id.New(),
		Timestamp: closed.ClosedAt,
		Closed:    closed,
	}); err != nil && l.Logger != nil {
		l.Logger.Error("journal write failed", "error", err)
	}
	return closed, nil
}

func (l *Live) release(marketID string, logger *slog.Logger) {
	if err := l.Ledger.Release(marketID); err != nil {
		logger.Error("release hold failed", "market_id", marketID, "error", err)
	}
}

func (l *Live) recordFailure(jnl journal.Journal, ev market.TradeEvent, reason string, logger *slog.Logger) {
	if err := jnl.RecordFill(journal.FillRecord{
		ID:        id.New(),
		Timestamp: ev.ObservedAt,
		Event:     ev,
		Error:     reason,
	}); err != nil {
		logger.Error("journal write failed", "error", err)
	}
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, risk.ErrBelowMinimum):
		return "below_minimum"
	case errors.Is(err, sim.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, sim.ErrPriceOutOfBounds):
		return "bad_price"
	case IsLocalTradeError(err):
		return "rejected"
	default:
		return "other"
	}
}
