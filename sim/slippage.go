// Package sim simulates order execution against a price-impact model.
// It is used directly in backtest replay and as the oracle a live fill
// is checked against for slippage accounting.
package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/clde-code/polycopy/market"
)

// ModelKind tags the impact model variant. The set is closed: adding a
// model means adding a variant here and a case in ExecutionPrice, not a
// new type.
type ModelKind string

const (
	// Linear pushes the price by size / depth_coefficient.
	Linear ModelKind = "linear"
	// Percentage pushes the price by a fixed fraction of itself.
	Percentage ModelKind = "percentage"
	// MarketImpact pushes the price by impact_param * ln(size).
	MarketImpact ModelKind = "market_impact"
)

var (
	ErrInvalidModelParameter = errors.New("invalid slippage model parameter")
	ErrInvalidSize           = errors.New("invalid trade size")
)

// Model is a price-impact model: a pure function from
// (side, size, reference price) to an executed price.
type Model struct {
	Kind             ModelKind `yaml:"model"`
	DepthCoefficient float64   `yaml:"depth_coefficient"`
	Rate             float64   `yaml:"rate"`
	ImpactParam      float64   `yaml:"impact_param"`
}

// DefaultModel matches a deep book: 100k quote units move the price by 1.
func DefaultModel() Model {
	return Model{Kind: Linear, DepthCoefficient: 100_000}
}

// Validate rejects parameters that make the model meaningless. Run at
// startup; a failure here is fatal, never a per-trade skip.
func (m Model) Validate() error {
	switch m.Kind {
	case Linear:
		if m.DepthCoefficient <= 0 {
			return fmt.Errorf("%w: depth_coefficient must be positive, got %v",
				ErrInvalidModelParameter, m.DepthCoefficient)
		}
	case Percentage:
		if m.Rate < 0 || m.Rate >= 1 {
			return fmt.Errorf("%w: rate must be in [0, 1), got %v",
				ErrInvalidModelParameter, m.Rate)
		}
	case MarketImpact:
		if m.ImpactParam < 0 {
			return fmt.Errorf("%w: impact_param must not be negative, got %v",
				ErrInvalidModelParameter, m.ImpactParam)
		}
	default:
		return fmt.Errorf("%w: unknown model %q", ErrInvalidModelParameter, m.Kind)
	}
	return nil
}

// ExecutionPrice returns the unclamped executed price for a trade of the
// given size at the reference price. MarketImpact requires size > 0
// because ln is undefined at zero; Linear and Percentage accept zero
// size with zero impact.
func (m Model) ExecutionPrice(side market.Side, size, refPrice float64) (float64, error) {
	if size < 0 {
		return 0, fmt.Errorf("%w: size %v is negative", ErrInvalidSize, size)
	}

	var impact float64
	switch m.Kind {
	case Linear:
		if m.DepthCoefficient <= 0 {
			return 0, fmt.Errorf("%w: depth_coefficient must be positive, got %v",
				ErrInvalidModelParameter, m.DepthCoefficient)
		}
		impact = size / m.DepthCoefficient
	case Percentage:
		impact = refPrice * m.Rate
	case MarketImpact:
		if size <= 0 {
			return 0, fmt.Errorf("%w: market impact model needs size > 0, got %v",
				ErrInvalidSize, size)
		}
		impact = m.ImpactParam * math.Log(size)
	default:
		return 0, fmt.Errorf("%w: unknown model %q", ErrInvalidModelParameter, m.Kind)
	}

	if side == market.Sell {
		return refPrice - impact, nil
	}
	return refPrice + impact, nil
}
