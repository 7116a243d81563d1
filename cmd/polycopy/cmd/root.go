package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "polycopy",
	Short: "A copy-trading engine for binary-outcome prediction markets",
	Long: `Polycopy replays or follows the trades of tracked market participants
on binary-outcome share markets.

It provides tools for:
  - Backtesting copy strategies against historical trade data
  - Live copy trading with per-market order serialization
  - Position sizing with absolute, relative and hybrid caps
  - Slippage and fee simulation against price-impact models
  - Trade journaling to JSONL, CSV or SQLite
  - Performance reporting: win rate, ROI, drawdown, Sharpe`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the process logger at the configured level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
