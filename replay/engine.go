// Package replay drives trade events through sizing, simulation and the
// ledger: strictly ordered and single-threaded for backtests, per-market
// serialized workers for live copy trading.
package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/clde-code/polycopy/internal/id"
	"github.com/clde-code/polycopy/journal"
	"github.com/clde-code/polycopy/ledger"
	"github.com/clde-code/polycopy/market"
	"github.com/clde-code/polycopy/metrics"
	"github.com/clde-code/polycopy/monitor"
	"github.com/clde-code/polycopy/risk"
	"github.com/clde-code/polycopy/sim"
)

// TradeFeed yields trade events one at a time. Implementations must be
// deterministic and return (ok=false, err=nil) at EOF.
type TradeFeed interface {
	Next() (ev market.TradeEvent, ok bool, err error)
	Close() error
}

// Engine replays a historical feed against simulated execution.
//
// The run is single-threaded and consumes events strictly in feed
// order; all timestamps come from the events themselves. Two runs over
// the same feed and configuration produce identical reports.
type Engine struct {
	Sizer      *risk.Sizer
	Sim        *sim.Simulator
	Filter     *monitor.Filter
	Journal    journal.Journal
	Aggregator metrics.Aggregator
	Logger     *slog.Logger

	InitialBalance float64
}

// Run consumes the feed to EOF, closes every remaining position at the
// last reference price observed for its market, and reports.
//
// A trade that fails locally (below minimum, insufficient balance,
// position already open, simulation rejection) is skipped with a log
// line and the run continues. Feed errors are fatal: the dataset is
// corrupt and a partial replay would report numbers nobody should
// trust.
func (e *Engine) Run(ctx context.Context, feed TradeFeed) (metrics.Report, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	jnl := e.Journal
	if jnl == nil {
		jnl = journal.Nop{}
	}

	book := ledger.New(e.InitialBalance)
	lastPrice := make(map[string]float64)
	var lastAt time.Time

	for {
		if err := ctx.Err(); err != nil {
			return metrics.Report{}, err
		}

		ev, ok, err := feed.Next()
		if err != nil {
			return metrics.Report{}, fmt.Errorf("read feed: %w", err)
		}
		if !ok {
			break
		}

		lastPrice[ev.MarketID] = ev.ReferencePrice
		if ev.ObservedAt.After(lastAt) {
			lastAt = ev.ObservedAt
		}

		if e.Filter != nil && !e.Filter.ShouldCopy(ev) {
			continue
		}

		fill, err := book.Transact(ev.MarketID, func(balance float64) (market.Fill, error) {
			size, err := e.Sizer.Size(ev.Size, balance)
			if err != nil {
				return market.Fill{}, err
			}
			return e.Sim.Execute(market.IntendedTrade{
				MarketID:       ev.MarketID,
				Side:           ev.Side,
				Size:           size,
				ReferencePrice: ev.ReferencePrice,
			}, balance, ev.ObservedAt)
		})

		if err != nil {
			logger.Warn("trade skipped",
				"market_id", ev.MarketID,
				"side", ev.Side.String(),
				"error", err)
			if jerr := jnl.RecordFill(journal.FillRecord{
				ID:        id.New(),
				Timestamp: ev.ObservedAt,
				Event:     ev,
				Error:     err.Error(),
			}); jerr != nil {
				return metrics.Report{}, fmt.Errorf("journal: %w", jerr)
			}
			continue
		}

		logger.Debug("trade copied",
			"market_id", ev.MarketID,
			"side", ev.Side.String(),
			"size", fill.Size,
			"executed_price", fill.ExecutedPrice)
		if jerr := jnl.RecordFill(journal.FillRecord{
			ID:        id.New(),
			Timestamp: ev.ObservedAt,
			Event:     ev,
			Fill:      &fill,
			Success:   true,
		}); jerr != nil {
			return metrics.Report{}, fmt.Errorf("journal: %w", jerr)
		}
	}

	closed := book.CloseAll(func(marketID string) (float64, bool) {
		p, ok := lastPrice[marketID]
		return p, ok
	}, lastAt)
	for _, c := range closed {
		if jerr := jnl.RecordClose(journal.CloseRecord{
			ID:        id.New(),
			Timestamp: c.ClosedAt,
			Closed:    c,
		}); jerr != nil {
			return metrics.Report{}, fmt.Errorf("journal: %w", jerr)
		}
	}

	return e.Aggregator.Report(book.Closed(), e.InitialBalance), nil
}

// IsLocalTradeError reports whether err is one of the per-trade
// conditions the engine skips over rather than aborting on.
func IsLocalTradeError(err error) bool {
	return errors.Is(err, risk.ErrBelowMinimum) ||
		errors.Is(err, sim.ErrInsufficientBalance) ||
		errors.Is(err, sim.ErrPriceOutOfBounds) ||
		errors.Is(err, sim.ErrInvalidSize) ||
		errors.Is(err, ledger.ErrPositionAlreadyOpen) ||
		errors.Is(err, ledger.ErrOrderInFlight)
}
