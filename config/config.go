// Package config loads and validates the run configuration.
//
// Contradictory or out-of-range parameters fail at load time: a
// misconfigured run aborted at startup is cheaper than one discovered
// after it traded.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/clde-code/polycopy/exec"
	"github.com/clde-code/polycopy/monitor"
	"github.com/clde-code/polycopy/risk"
	"github.com/clde-code/polycopy/sim"
)

const (
	ModeBacktest = "backtest"
	ModeLive     = "live"
)

// Config is the complete run configuration.
type Config struct {
	Mode string `yaml:"mode"`

	Account AccountConfig  `yaml:"account"`
	Risk    risk.Config    `yaml:"risk"`
	Sim     SimConfig      `yaml:"simulation"`
	Exec    exec.Config    `yaml:"execution"`
	Filter  monitor.Filter `yaml:"filter"`
	Feed    FeedConfig     `yaml:"feed"`
	Journal JournalConfig  `yaml:"journal"`
	Metrics MetricsConfig  `yaml:"metrics"`
	Log     LogConfig      `yaml:"log"`
}

type AccountConfig struct {
	InitialBalance float64 `yaml:"initial_balance"`
}

type SimConfig struct {
	Slippage sim.Model `yaml:"slippage"`
	// FeeRate is charged on entry cost only; exits are fee-free so a
	// round trip at an unchanged price nets exactly zero.
	FeeRate float64 `yaml:"fee_rate"`
}

type FeedConfig struct {
	// Type selects the event source: "csv", "jsonl" or "ws".
	Type string `yaml:"type"`
	Path string `yaml:"path,omitempty"`
	WS   monitor.WSConfig `yaml:"ws,omitempty"`
}

type JournalConfig struct {
	// Type selects the backend: "jsonl", "csv", "sqlite" or "none".
	Type       string `yaml:"type"`
	Path       string `yaml:"path,omitempty"`
	ClosesPath string `yaml:"closes_path,omitempty"`
}

type MetricsConfig struct {
	// Annualization scales the Sharpe ratio, e.g. 15.87 (sqrt 252)
	// for one closed trade per day. 0 reports the raw per-trade ratio.
	Annualization float64 `yaml:"annualization"`
	// Addr, when set in live mode, serves Prometheus metrics.
	Addr string `yaml:"addr,omitempty"`
}

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Load reads path, expands ${ENV} references and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse decodes and validates raw YAML.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Default returns a runnable backtest configuration: relative sizing
// at 10% of capital, the default linear impact model, no fees.
func Default() *Config {
	return &Config{
		Mode: ModeBacktest,
		Account: AccountConfig{
			InitialBalance: 10_000,
		},
		Risk: risk.Config{
			Strategy:       risk.Relative,
			RelCapFraction: 0.1,
		},
		Sim: SimConfig{
			Slippage: sim.DefaultModel(),
		},
		Exec: exec.Config{
			PollInterval: time.Second,
			Timeout:      30 * time.Second,
			MaxRetries:   3,
			RetryBackoff: 2 * time.Second,
		},
		Feed:    FeedConfig{Type: "csv"},
		Journal: JournalConfig{Type: "jsonl"},
		Log:     LogConfig{Level: "info"},
	}
}

func (c *Config) Validate() error {
	switch c.Mode {
	case ModeBacktest, ModeLive:
	default:
		return fmt.Errorf("mode must be %q or %q, got %q", ModeBacktest, ModeLive, c.Mode)
	}

	if c.Account.InitialBalance <= 0 {
		return fmt.Errorf("account.initial_balance must be positive, got %v", c.Account.InitialBalance)
	}
	if c.Sim.FeeRate < 0 || c.Sim.FeeRate >= 1 {
		return fmt.Errorf("simulation.fee_rate must be in [0, 1), got %v", c.Sim.FeeRate)
	}
	if c.Filter.MinQuoteSize < 0 || c.Filter.MaxQuoteSize < 0 {
		return fmt.Errorf("filter quote size bounds must not be negative")
	}
	if c.Filter.MinQuoteSize > 0 && c.Filter.MaxQuoteSize > 0 &&
		c.Filter.MinQuoteSize > c.Filter.MaxQuoteSize {
		return fmt.Errorf("filter.min_quote_size %v exceeds filter.max_quote_size %v",
			c.Filter.MinQuoteSize, c.Filter.MaxQuoteSize)
	}
	if c.Metrics.Annualization < 0 {
		return fmt.Errorf("metrics.annualization must not be negative, got %v", c.Metrics.Annualization)
	}

	if err := c.Risk.Validate(); err != nil {
		return fmt.Errorf("risk: %w", err)
	}
	if err := c.Sim.Slippage.Validate(); err != nil {
		return fmt.Errorf("simulation.slippage: %w", err)
	}
	if c.Mode == ModeLive {
		if err := c.Exec.Validate(); err != nil {
			return fmt.Errorf("execution: %w", err)
		}
	}

	switch c.Feed.Type {
	case "csv", "jsonl":
		if c.Feed.Path == "" {
			return fmt.Errorf("feed.path is required for feed.type %q", c.Feed.Type)
		}
	case "ws":
		if c.Feed.WS.URL == "" {
			return fmt.Errorf("feed.ws.url is required for feed.type ws")
		}
	default:
		return fmt.Errorf("feed.type must be csv, jsonl or ws, got %q", c.Feed.Type)
	}

	switch c.Journal.Type {
	case "none":
	case "jsonl", "sqlite":
		if c.Journal.Path == "" {
			return fmt.Errorf("journal.path is required for journal.type %q", c.Journal.Type)
		}
	case "csv":
		if c.Journal.Path == "" || c.Journal.ClosesPath == "" {
			return fmt.Errorf("journal.path and journal.closes_path are required for journal.type csv")
		}
	default:
		return fmt.Errorf("journal.type must be jsonl, csv, sqlite or none, got %q", c.Journal.Type)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	return nil
}
