// Package metrics computes performance statistics from a ledger's
// closed-position sequence.
package metrics

import (
	"math"

	"github.com/clde-code/polycopy/market"
)

// ProfitFactorCap is the sentinel reported when there are no losing
// trades: avg_loss is zero and the true ratio is unbounded.
const ProfitFactorCap = 1000

// Report is a read-only view derived from closed positions. It is never
// mutated in place; recompute it from the ledger whenever needed.
type Report struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"` // percent

	InitialBalance float64 `json:"initial_balance"`
	FinalBalance   float64 `json:"final_balance"`
	TotalPnL       float64 `json:"total_pnl"`
	ROI            float64 `json:"roi"` // percent

	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"` // absolute value
	ProfitFactor float64 `json:"profit_factor"`
	MaxDrawdown  float64 `json:"max_drawdown"` // percent
	SharpeRatio  float64 `json:"sharpe_ratio"`
}

// Aggregator holds the constants a report depends on besides its
// inputs. The zero value reports per-trade Sharpe (no annualization).
type Aggregator struct {
	// Annualization scales the raw mean/stddev Sharpe ratio, e.g.
	// sqrt(252) for one closed trade per day. 0 means 1.
	Annualization float64
}

// Report computes the full statistics for a closing-order sequence.
// Pure and idempotent: the same inputs always produce the same report.
func (a Aggregator) Report(closed []market.ClosedPosition, initialBalance float64) Report {
	r := Report{
		InitialBalance: initialBalance,
		FinalBalance:   initialBalance,
		TotalTrades:    len(closed),
	}
	if len(closed) == 0 {
		return r
	}

	var totalPnL, winSum, lossSum float64
	for _, c := range closed {
		totalPnL += c.PnL
		switch {
		case c.PnL > 0:
			r.WinningTrades++
			winSum += c.PnL
		case c.PnL < 0:
			r.LosingTrades++
			lossSum += -c.PnL
		}
	}

	r.TotalPnL = totalPnL
	r.FinalBalance = initialBalance + totalPnL
	r.WinRate = float64(r.WinningTrades) / float64(r.TotalTrades) * 100

	if r.WinningTrades > 0 {
		r.AvgWin = winSum / float64(r.WinningTrades)
	}
	if r.LosingTrades > 0 {
		r.AvgLoss = lossSum / float64(r.LosingTrades)
	}

	if r.AvgLoss == 0 {
		r.ProfitFactor = ProfitFactorCap
	} else {
		r.ProfitFactor = r.AvgWin / r.AvgLoss
	}

	if initialBalance > 0 {
		r.ROI = totalPnL / initialBalance * 100
	}

	r.MaxDrawdown = maxDrawdown(closed, initialBalance)
	r.SharpeRatio = a.sharpe(closed)

	return r
}

// maxDrawdown walks the cumulative balance in closing order, tracking
// the running peak; drawdown at each step is (peak-current)/peak. The
// result is path-dependent on purpose: reordering closes changes it.
func maxDrawdown(closed []market.ClosedPosition, initialBalance float64) float64 {
	peak := initialBalance
	current := initialBalance
	var maxDD float64

	for _, c := range closed {
		current += c.PnL
		if current > peak {
			peak = current
		}
		if peak > 0 {
			if dd := (peak - current) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD * 100
}

// sharpe is mean(pnl)/stddev(pnl) over the per-trade pnl sequence,
// scaled by the annualization factor. The stddev is the population
// standard deviation (ddof = 0): variance divides by n, not n-1.
func (a Aggregator) sharpe(closed []market.ClosedPosition) float64 {
	n := float64(len(closed))
	if n == 0 {
		return 0
	}

	var sum float64
	for _, c := range closed {
		sum += c.PnL
	}
	mean := sum / n

	var variance float64
	for _, c := range closed {
		d := c.PnL - mean
		variance += d * d
	}
	variance /= n

	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}

	factor := a.Annualization
	if factor == 0 {
		factor = 1
	}
	return mean / std * factor
}
