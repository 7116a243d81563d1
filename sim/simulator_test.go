package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clde-code/polycopy/market"
)

var testTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func intent(side market.Side, size, price float64) market.IntendedTrade {
	return market.IntendedTrade{MarketID: "m1", Side: side, Size: size, ReferencePrice: price}
}

func TestExecuteScenarioC(t *testing.T) {
	t.Parallel()

	// reference 0.50, size 100, linear depth 100000, buy
	// -> executed 0.501, slippage +0.001
	s := NewSimulator(Model{Kind: Linear, DepthCoefficient: 100_000}, 0)

	fill, err := s.Execute(intent(market.Buy, 100, 0.50), 10_000, testTime)
	require.NoError(t, err)
	assert.InDelta(t, 0.501, fill.ExecutedPrice, 1e-12)
	assert.InDelta(t, 0.001, fill.Slippage, 1e-12)
	assert.InDelta(t, 50.1, fill.Cost, 1e-12)
	assert.Zero(t, fill.Fee)
	assert.Equal(t, "m1", fill.MarketID)
	assert.Equal(t, testTime, fill.At)
}

func TestExecuteFee(t *testing.T) {
	t.Parallel()

	s := NewSimulator(Model{Kind: Linear, DepthCoefficient: 100_000}, 0.002)

	fill, err := s.Execute(intent(market.Buy, 1000, 0.5), 10_000, testTime)
	require.NoError(t, err)
	// executed = 0.51, cost = 510, fee = 1.02
	assert.InDelta(t, 510.0, fill.Cost, 1e-9)
	assert.InDelta(t, 1.02, fill.Fee, 1e-9)
	assert.InDelta(t, 511.02, fill.TotalCost(), 1e-9)
}

func TestExecuteInsufficientBalance(t *testing.T) {
	t.Parallel()

	s := NewSimulator(Model{Kind: Linear, DepthCoefficient: 100_000}, 0)

	// Buy needs 1000*0.51 = 510 > 100.
	_, err := s.Execute(intent(market.Buy, 1000, 0.5), 100, testTime)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// Sells never check the balance.
	_, err = s.Execute(intent(market.Sell, 1000, 0.5), 0, testTime)
	assert.NoError(t, err)
}

func TestExecuteClampsToShareDomain(t *testing.T) {
	t.Parallel()

	s := NewSimulator(Model{Kind: Linear, DepthCoefficient: 100}, 0)

	// 0.9 + 1000/100 would be 10.9; policy clamp caps at 1.
	fill, err := s.Execute(intent(market.Buy, 1000, 0.9), 1e9, testTime)
	require.NoError(t, err)
	assert.Equal(t, 1.0, fill.ExecutedPrice)
	assert.InDelta(t, 0.1, fill.Slippage, 1e-12)

	fill, err = s.Execute(intent(market.Sell, 1000, 0.1), 0, testTime)
	require.NoError(t, err)
	assert.Equal(t, 0.0, fill.ExecutedPrice)
}

func TestExecuteRejectsBadReferencePrice(t *testing.T) {
	t.Parallel()

	s := NewSimulator(DefaultModel(), 0)

	for _, price := range []float64{0, 1, 1.3, -0.2} {
		_, err := s.Execute(intent(market.Buy, 100, price), 10_000, testTime)
		assert.ErrorIs(t, err, ErrPriceOutOfBounds, "price=%v", price)
	}
}

func TestExecutePropagatesModelErrors(t *testing.T) {
	t.Parallel()

	s := NewSimulator(Model{Kind: MarketImpact, ImpactParam: 0.001}, 0)
	_, err := s.Execute(intent(market.Buy, 0, 0.5), 10_000, testTime)
	assert.ErrorIs(t, err, ErrInvalidSize)

	s = NewSimulator(Model{Kind: Linear, DepthCoefficient: 0}, 0)
	_, err = s.Execute(intent(market.Buy, 100, 0.5), 10_000, testTime)
	assert.ErrorIs(t, err, ErrInvalidModelParameter)
}
