package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbsoluteIgnoresCapital(t *testing.T) {
	t.Parallel()

	s := NewSizer(Config{Strategy: Absolute, AbsCap: 1000, RelCapFraction: 0.1})

	for _, capital := range []float64{0, 100, 10_000, 1_000_000} {
		got, err := s.Size(2000, capital)
		require.NoError(t, err)
		assert.InDelta(t, 1000.0, got, 1e-12, "capital=%v", capital)

		got, err = s.Size(500, capital)
		require.NoError(t, err)
		assert.InDelta(t, 500.0, got, 1e-12, "capital=%v", capital)
	}
}

func TestRelativeScenarioA(t *testing.T) {
	t.Parallel()

	// capital=10000, target=2000, rel cap 0.1 -> 1000
	s := NewSizer(Config{Strategy: Relative, AbsCap: 1e9, RelCapFraction: 0.1})
	got, err := s.Size(2000, 10_000)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, got, 1e-12)
}

func TestHybridScenarioB(t *testing.T) {
	t.Parallel()

	// capital=50000, abs cap 1000, rel cap 0.1 (-> 5000), priority
	// absolute, target 3000 -> 1000.
	s := NewSizer(Config{
		Strategy:       Hybrid,
		AbsCap:         1000,
		RelCapFraction: 0.1,
		Priority:       Absolute,
	})
	got, err := s.Size(3000, 50_000)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, got, 1e-12)
}

func TestHybridAbsolutePriorityNeverExceedsAbsCap(t *testing.T) {
	t.Parallel()

	s := NewSizer(Config{
		Strategy:       Hybrid,
		AbsCap:         1000,
		RelCapFraction: 0.5,
		Priority:       Absolute,
	})

	for _, tc := range []struct{ target, capital float64 }{
		{500, 100_000},
		{5000, 100_000},
		{1000, 2000},
		{1e6, 1e9},
	} {
		got, err := s.Size(tc.target, tc.capital)
		require.NoError(t, err)
		assert.LessOrEqual(t, got, 1000.0, "target=%v capital=%v", tc.target, tc.capital)
	}
}

func TestHybridRelativePriority(t *testing.T) {
	t.Parallel()

	s := NewSizer(Config{
		Strategy:       Hybrid,
		AbsCap:         1000,
		RelCapFraction: 0.1,
		Priority:       Relative,
	})

	// rel cap = 0.1 * 4000 = 400 binds below the absolute cap.
	got, err := s.Size(3000, 4000)
	require.NoError(t, err)
	assert.InDelta(t, 400.0, got, 1e-12)
}

func TestNonPositiveCapital(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"relative", Config{Strategy: Relative, AbsCap: 1000, RelCapFraction: 0.1}},
		{"hybrid", Config{Strategy: Hybrid, AbsCap: 1000, RelCapFraction: 0.1, Priority: Absolute}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := NewSizer(tt.cfg)
			for _, capital := range []float64{0, -500} {
				_, err := s.Size(1000, capital)
				assert.ErrorIs(t, err, ErrBelowMinimum, "capital=%v", capital)
			}
		})
	}
}

func TestMinSizeFloor(t *testing.T) {
	t.Parallel()

	s := NewSizer(Config{Strategy: Absolute, AbsCap: 1000, RelCapFraction: 0.1, MinSize: 10})

	_, err := s.Size(5, 10_000)
	assert.ErrorIs(t, err, ErrBelowMinimum)

	got, err := s.Size(10, 10_000)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, got, 1e-12)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := Config{Strategy: Hybrid, AbsCap: 1000, RelCapFraction: 0.1, Priority: Absolute}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{"unknown strategy", func(c *Config) { c.Strategy = "martingale" }},
		{"bad priority", func(c *Config) { c.Priority = "biggest" }},
		{"zero abs cap", func(c *Config) { c.AbsCap = 0 }},
		{"fraction above one", func(c *Config) { c.RelCapFraction = 1.5 }},
		{"fraction zero", func(c *Config) { c.RelCapFraction = 0 }},
		{"negative floor", func(c *Config) { c.MinSize = -1 }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tt.mut(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
