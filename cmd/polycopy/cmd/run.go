package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clde-code/polycopy/config"
	"github.com/clde-code/polycopy/exec"
	"github.com/clde-code/polycopy/internal/obs"
	"github.com/clde-code/polycopy/ledger"
	"github.com/clde-code/polycopy/metrics"
	"github.com/clde-code/polycopy/monitor"
	"github.com/clde-code/polycopy/replay"
	"github.com/clde-code/polycopy/risk"
	"github.com/clde-code/polycopy/sim"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Copy trades live from a websocket event stream",
	Long: `Run connects to a trade event stream and copies qualifying trades
through order execution.

Events for the same market are handled strictly in arrival order; an
order failure in one market never affects another. The default venue is
the in-process paper venue, which fills orders at their limit price.

Example:
  polycopy run -c config.yaml`,
	RunE: runLive,
}

var (
	runConfigPath string
	runWorkers    int
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "config.yaml", "path to config file")
	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", 4, "execution worker count")
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(runConfigPath)
	if err != nil {
		return err
	}
	if cfg.Mode != config.ModeLive {
		return fmt.Errorf("config mode is %q; run requires mode %q", cfg.Mode, config.ModeLive)
	}

	logger := newLogger(cfg.Log.Level)
	ctx := cmd.Context()

	jnl, _, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer jnl.Close()

	feed := monitor.NewWSFeed(cfg.Feed.WS, logger)
	if err := feed.Connect(ctx); err != nil {
		return fmt.Errorf("connect trade stream: %w", err)
	}
	defer feed.Close()

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := obs.Serve(cfg.Metrics.Addr); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	live := &replay.Live{
		Sizer:    risk.NewSizer(cfg.Risk),
		Sim:      sim.NewSimulator(cfg.Sim.Slippage, cfg.Sim.FeeRate),
		Ledger:   ledger.New(cfg.Account.InitialBalance),
		Executor: exec.NewExecutor(exec.NewPaperVenue(), nil, cfg.Exec, logger),
		Filter:   &cfg.Filter,
		Journal:  jnl,
		Tracker: metrics.NewTracker(
			metrics.Aggregator{Annualization: cfg.Metrics.Annualization},
			cfg.Account.InitialBalance),
		Logger:  logger,
		Workers: runWorkers,
	}

	go func() {
		for err := range feed.Errors() {
			logger.Error("trade stream failed", "error", err)
		}
	}()

	logger.Info("live copy trading started",
		"stream", cfg.Feed.WS.URL,
		"balance", cfg.Account.InitialBalance,
		"workers", runWorkers)

	if err := live.Run(ctx, feed.Events()); err != nil {
		return err
	}

	live.Tracker.Report().Write(cmd.OutOrStdout())
	return nil
}
