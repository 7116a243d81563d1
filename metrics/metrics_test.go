package metrics

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clde-code/polycopy/market"
)

func closedWithPnls(pnls ...float64) []market.ClosedPosition {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]market.ClosedPosition, len(pnls))
	for i, pnl := range pnls {
		out[i] = market.ClosedPosition{
			Position: market.Position{
				MarketID: "m", Side: market.Buy,
				EntryPrice: 0.5, Size: 100, OpenedAt: at,
			},
			ExitPrice: 0.5,
			PnL:       pnl,
			ClosedAt:  at.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

func TestReportScenarioD(t *testing.T) {
	t.Parallel()

	closed := closedWithPnls(100, -50, 200, -30, 80)
	r := Aggregator{}.Report(closed, 10_000)

	assert.Equal(t, 5, r.TotalTrades)
	assert.Equal(t, 3, r.WinningTrades)
	assert.Equal(t, 2, r.LosingTrades)
	assert.InDelta(t, 60.0, r.WinRate, 1e-9)
	assert.InDelta(t, 126.6667, r.AvgWin, 1e-3)
	assert.InDelta(t, 40.0, r.AvgLoss, 1e-9)
	assert.InDelta(t, 3.1667, r.ProfitFactor, 1e-3)
	assert.InDelta(t, 300.0, r.TotalPnL, 1e-9)
	assert.InDelta(t, 3.0, r.ROI, 1e-9)
	assert.InDelta(t, 10_300.0, r.FinalBalance, 1e-9)
}

func TestMaxDrawdownScenarioE(t *testing.T) {
	t.Parallel()

	// Cumulative balances: 10000, 10100, 10050, 10250, 10220.
	// Running peaks:        10000, 10100, 10100, 10250, 10250.
	// Worst step is (10100-10050)/10100, not the later 30-point dip
	// against the higher peak.
	closed := closedWithPnls(100, -50, 200, -30)
	r := Aggregator{}.Report(closed, 10_000)

	assert.InDelta(t, 50.0/10_100.0*100, r.MaxDrawdown, 1e-9)
}

func TestReportIdempotent(t *testing.T) {
	t.Parallel()

	closed := closedWithPnls(100, -50, 200, -30, 80)
	a := Aggregator{Annualization: 15.874}

	first := a.Report(closed, 10_000)
	second := a.Report(closed, 10_000)
	assert.Equal(t, first, second)
}

func TestProfitFactorSentinelWithoutLosses(t *testing.T) {
	t.Parallel()

	r := Aggregator{}.Report(closedWithPnls(10, 20, 30), 1000)
	assert.Equal(t, float64(ProfitFactorCap), r.ProfitFactor)
	assert.Zero(t, r.AvgLoss)
}

func TestEmptyReport(t *testing.T) {
	t.Parallel()

	r := Aggregator{}.Report(nil, 5000)
	assert.Zero(t, r.TotalTrades)
	assert.Zero(t, r.WinRate)
	assert.Zero(t, r.ProfitFactor)
	assert.Zero(t, r.SharpeRatio)
	assert.Equal(t, 5000.0, r.InitialBalance)
	assert.Equal(t, 5000.0, r.FinalBalance)
}

func TestSharpePopulationStddev(t *testing.T) {
	t.Parallel()

	// pnls [100,-50,200,-30,80]: mean 60, population variance
	// 41800/5 = 8360, stddev 91.433..., sharpe 0.6562...
	r := Aggregator{}.Report(closedWithPnls(100, -50, 200, -30, 80), 10_000)
	assert.InDelta(t, 0.6562, r.SharpeRatio, 1e-3)

	// Annualization scales linearly.
	scaled := Aggregator{Annualization: 10}.Report(closedWithPnls(100, -50, 200, -30, 80), 10_000)
	assert.InDelta(t, r.SharpeRatio*10, scaled.SharpeRatio, 1e-9)

	// Constant pnl sequence has zero stddev; report zero, not Inf.
	flat := Aggregator{}.Report(closedWithPnls(10, 10, 10), 10_000)
	assert.Zero(t, flat.SharpeRatio)
}

func TestTrackerMatchesFullRecompute(t *testing.T) {
	t.Parallel()

	closed := closedWithPnls(100, -50, 200, -30, 80)
	tr := NewTracker(Aggregator{}, 10_000)
	for _, c := range closed {
		tr.Record(c)
	}

	assert.Equal(t, Aggregator{}.Report(closed, 10_000), tr.Report())
}

func TestReportWrite(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := Aggregator{}.Report(closedWithPnls(100, -50), 10_000)
	r.Write(&buf)

	out := buf.String()
	require.Contains(t, out, "Backtest Results")
	assert.Contains(t, out, "Total Trades:    2")
	assert.Contains(t, out, "Win Rate:        50.00%")
	assert.Contains(t, out, "ROI:             0.50%")
}
