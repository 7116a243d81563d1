package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clde-code/polycopy/config"
	"github.com/clde-code/polycopy/metrics"
	"github.com/clde-code/polycopy/replay"
	"github.com/clde-code/polycopy/risk"
	"github.com/clde-code/polycopy/sim"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay historical trades against simulated execution",
	Long: `Backtest replays a trade history file through the copy engine with
simulated fills, then prints a performance report.

The replay is deterministic: the same history and configuration always
produce the same report. Positions still open at the end of the history
are closed at the last observed price for their market.

Example:
  polycopy backtest -c config.yaml
  polycopy backtest -c config.yaml --trades data/trades.csv --balance 50000`,
	RunE: runBacktest,
}

var (
	btConfigPath string
	btTradesPath string
	btBalance    float64
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btConfigPath, "config", "c", "config.yaml", "path to config file")
	backtestCmd.Flags().StringVarP(&btTradesPath, "trades", "t", "", "trade history path (overrides config)")
	backtestCmd.Flags().Float64VarP(&btBalance, "balance", "b", 0, "starting balance (overrides config)")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(btConfigPath)
	if err != nil {
		return err
	}
	if btTradesPath != "" {
		cfg.Feed.Path = btTradesPath
	}
	if btBalance > 0 {
		cfg.Account.InitialBalance = btBalance
	}

	logger := newLogger(cfg.Log.Level)

	feed, err := openFeed(cfg.Feed)
	if err != nil {
		return err
	}
	defer feed.Close()

	jnl, db, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer jnl.Close()

	engine := &replay.Engine{
		Sizer:          risk.NewSizer(cfg.Risk),
		Sim:            sim.NewSimulator(cfg.Sim.Slippage, cfg.Sim.FeeRate),
		Filter:         &cfg.Filter,
		Journal:        jnl,
		Aggregator:     metrics.Aggregator{Annualization: cfg.Metrics.Annualization},
		Logger:         logger,
		InitialBalance: cfg.Account.InitialBalance,
	}

	report, err := engine.Run(cmd.Context(), feed)
	if err != nil {
		return err
	}

	report.Write(os.Stdout)

	if db != nil {
		runID, err := db.RecordRun(report)
		if err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		logger.Info("report saved", "run_id", runID)
	}
	return nil
}
