package cmd

import (
	"fmt"

	"github.com/clde-code/polycopy/config"
	"github.com/clde-code/polycopy/journal"
	"github.com/clde-code/polycopy/monitor"
	"github.com/clde-code/polycopy/replay"
)

// openJournal builds the configured journal backend. The SQLite handle
// is returned separately so backtests can persist their report.
func openJournal(cfg config.JournalConfig) (journal.Journal, *journal.SQLite, error) {
	switch cfg.Type {
	case "none":
		return journal.Nop{}, nil, nil
	case "jsonl":
		j, err := journal.NewJSONL(cfg.Path)
		return j, nil, err
	case "csv":
		j, err := journal.NewCSV(cfg.Path, cfg.ClosesPath)
		return j, nil, err
	case "sqlite":
		j, err := journal.OpenSQLite(cfg.Path)
		return j, j, err
	}
	return nil, nil, fmt.Errorf("unknown journal type %q", cfg.Type)
}

// openFeed builds the configured historical feed. The websocket source
// is live-only and handled by the run command.
func openFeed(cfg config.FeedConfig) (replay.TradeFeed, error) {
	switch cfg.Type {
	case "csv":
		return monitor.OpenCSVFeed(cfg.Path)
	case "jsonl":
		return monitor.OpenJSONLFeed(cfg.Path)
	}
	return nil, fmt.Errorf("feed type %q cannot be replayed", cfg.Type)
}
