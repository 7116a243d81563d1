// Package risk converts an observed trade size into the size this
// account should actually trade, enforcing the configured caps.
package risk

import (
	"errors"
	"fmt"
	"math"
)

// Strategy selects how the caps in Config are combined.
type Strategy string

const (
	// Absolute caps every trade at Config.AbsCap.
	Absolute Strategy = "absolute"
	// Relative caps every trade at capital * Config.RelCapFraction.
	Relative Strategy = "relative"
	// Hybrid applies both caps; Config.Priority names the one that wins.
	Hybrid Strategy = "hybrid"
)

// ErrBelowMinimum is returned when the capped size falls under the
// configured floor. Sub-floor orders are dust: they either cannot be
// filled or are not economical after fees.
var ErrBelowMinimum = errors.New("sized trade below minimum")

// Config is the immutable sizing policy for a run.
type Config struct {
	Strategy       Strategy `yaml:"strategy"`
	AbsCap         float64  `yaml:"abs_cap"`
	RelCapFraction float64  `yaml:"rel_cap_fraction"`
	Priority       Strategy `yaml:"priority"` // hybrid only: absolute or relative
	MinSize        float64  `yaml:"min_size"`
}

// Validate rejects contradictory or out-of-range parameters. Called at
// startup; sizing itself assumes a valid config.
func (c Config) Validate() error {
	switch c.Strategy {
	case Absolute, Relative, Hybrid:
	default:
		return fmt.Errorf("unknown sizing strategy %q", c.Strategy)
	}
	if c.Strategy == Hybrid && c.Priority != Absolute && c.Priority != Relative {
		return fmt.Errorf("hybrid priority must be absolute or relative, got %q", c.Priority)
	}
	if c.Strategy != Relative && c.AbsCap <= 0 {
		return fmt.Errorf("abs_cap must be positive, got %v", c.AbsCap)
	}
	if c.Strategy != Absolute && (c.RelCapFraction <= 0 || c.RelCapFraction > 1) {
		return fmt.Errorf("rel_cap_fraction must be in (0, 1], got %v", c.RelCapFraction)
	}
	if c.MinSize < 0 {
		return fmt.Errorf("min_size must not be negative, got %v", c.MinSize)
	}
	return nil
}

// Sizer is a pure function of (target, capital, config). It performs no
// I/O and holds no state beyond the config.
type Sizer struct {
	cfg Config
}

func NewSizer(cfg Config) *Sizer { return &Sizer{cfg: cfg} }

// Size returns the size to trade for a target size and the capital
// available right now. The caller is responsible for reading capital and
// committing the resulting trade under one lock; see ledger.Transact.
func (s *Sizer) Size(target, capital float64) (float64, error) {
	size := target

	switch s.cfg.Strategy {
	case Absolute:
		size = math.Min(size, s.cfg.AbsCap)
	case Relative:
		size = math.Min(size, capital*s.cfg.RelCapFraction)
	case Hybrid:
		// The priority cap is applied last so it wins ties and
		// overrides a larger allowance from the other cap.
		if s.cfg.Priority == Absolute {
			size = math.Min(size, capital*s.cfg.RelCapFraction)
			size = math.Min(size, s.cfg.AbsCap)
		} else {
			size = math.Min(size, s.cfg.AbsCap)
			size = math.Min(size, capital*s.cfg.RelCapFraction)
		}
	default:
		return 0, fmt.Errorf("unknown sizing strategy %q", s.cfg.Strategy)
	}

	if size <= 0 || size < s.cfg.MinSize {
		return 0, ErrBelowMinimum
	}
	return size, nil
}
