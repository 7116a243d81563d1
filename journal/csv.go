package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"sync"
	"time"
)

// CSV writes fills and closed positions to two flat files.
type CSV struct {
	mu     sync.Mutex
	fills  *csv.Writer
	closes *csv.Writer
	ff, cf *os.File
}

func NewCSV(fillsPath, closesPath string) (*CSV, error) {
	ff, err := os.Create(fillsPath)
	if err != nil {
		return nil, err
	}
	cf, err := os.Create(closesPath)
	if err != nil {
		ff.Close()
		return nil, err
	}

	fw := csv.NewWriter(ff)
	cw := csv.NewWriter(cf)

	if err := fw.Write([]string{"id", "timestamp", "market_id", "side", "size", "reference_price", "executed_price", "fee", "slippage", "success", "error"}); err != nil {
		return nil, err
	}
	if err := cw.Write([]string{"id", "timestamp", "market_id", "side", "size", "entry_price", "exit_price", "pnl"}); err != nil {
		return nil, err
	}

	fw.Flush()
	if err := fw.Error(); err != nil {
		return nil, err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}

	return &CSV{fills: fw, closes: cw, ff: ff, cf: cf}, nil
}

func (j *CSV) RecordFill(r FillRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	row := []string{
		r.ID,
		r.Timestamp.Format(time.RFC3339),
		r.Event.MarketID,
		r.Event.Side.String(),
		"", "", "", "", "",
		strconv.FormatBool(r.Success),
		r.Error,
	}
	if r.Fill != nil {
		row[4] = f(r.Fill.Size)
		row[5] = f(r.Fill.ReferencePrice)
		row[6] = f(r.Fill.ExecutedPrice)
		row[7] = f(r.Fill.Fee)
		row[8] = f(r.Fill.Slippage)
	}
	if err := j.fills.Write(row); err != nil {
		return err
	}
	j.fills.Flush()
	return j.fills.Error()
}

func (j *CSV) RecordClose(r CloseRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	err := j.closes.Write([]string{
		r.ID,
		r.Timestamp.Format(time.RFC3339),
		r.Closed.Position.MarketID,
		r.Closed.Position.Side.String(),
		f(r.Closed.Position.Size),
		f(r.Closed.Position.EntryPrice),
		f(r.Closed.ExitPrice),
		f(r.Closed.PnL),
	})
	if err != nil {
		return err
	}
	j.closes.Flush()
	return j.closes.Error()
}

func (j *CSV) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.fills.Flush()
	if err := j.fills.Error(); err != nil {
		return err
	}
	j.closes.Flush()
	if err := j.closes.Error(); err != nil {
		return err
	}

	if err := j.ff.Close(); err != nil {
		return err
	}
	return j.cf.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
