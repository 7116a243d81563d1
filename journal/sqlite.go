package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/clde-code/polycopy/internal/id"
	"github.com/clde-code/polycopy/metrics"
)

// SQLite stores records in a single database file. Unlike the stream
// backends it is queryable after the fact, which makes it the default
// for backtests.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) RecordFill(r FillRecord) error {
	var size, ref, executed, fee, slippage sql.NullFloat64
	marketID := r.Event.MarketID
	side := r.Event.Side.String()
	if r.Fill != nil {
		marketID = r.Fill.MarketID
		side = r.Fill.Side.String()
		size = sql.NullFloat64{Float64: r.Fill.Size, Valid: true}
		ref = sql.NullFloat64{Float64: r.Fill.ReferencePrice, Valid: true}
		executed = sql.NullFloat64{Float64: r.Fill.ExecutedPrice, Valid: true}
		fee = sql.NullFloat64{Float64: r.Fill.Fee, Valid: true}
		slippage = sql.NullFloat64{Float64: r.Fill.Slippage, Valid: true}
	}

	_, err := s.db.Exec(`INSERT INTO fills
		(id, timestamp, market_id, side, size, reference_price, executed_price, fee, slippage, success, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Timestamp, marketID, side,
		size, ref, executed, fee, slippage,
		r.Success, r.Error)
	if err != nil {
		return fmt.Errorf("insert fill: %w", err)
	}
	return nil
}

func (s *SQLite) RecordClose(r CloseRecord) error {
	p := r.Closed.Position
	_, err := s.db.Exec(`INSERT INTO closes
		(id, timestamp, market_id, side, size, entry_price, exit_price, pnl, opened_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Timestamp, p.MarketID, p.Side.String(),
		p.Size, p.EntryPrice, r.Closed.ExitPrice, r.Closed.PnL, p.OpenedAt)
	if err != nil {
		return fmt.Errorf("insert close: %w", err)
	}
	return nil
}

// RecordRun persists a finished run's report and returns its id.
func (s *SQLite) RecordRun(report metrics.Report) (string, error) {
	runID := id.New()
	_, err := s.db.Exec(`INSERT INTO runs
		(run_id, created, total_trades, winning_trades, losing_trades, win_rate,
		 initial_balance, final_balance, total_pnl, roi,
		 avg_win, avg_loss, profit_factor, max_drawdown, sharpe_ratio)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, time.Now().UTC(),
		report.TotalTrades, report.WinningTrades, report.LosingTrades, report.WinRate,
		report.InitialBalance, report.FinalBalance, report.TotalPnL, report.ROI,
		report.AvgWin, report.AvgLoss, report.ProfitFactor, report.MaxDrawdown, report.SharpeRatio)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return runID, nil
}

// Runs returns the ids of all recorded runs, newest first.
func (s *SQLite) Runs() ([]string, error) {
	rows, err := s.db.Query(`SELECT run_id FROM runs ORDER BY created DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var runID string
		if err := rows.Scan(&runID); err != nil {
			return nil, err
		}
		ids = append(ids, runID)
	}
	return ids, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
