// Package monitor supplies trade events to the engine: historical
// files for backtests and a websocket stream plus a position-diff
// detector for live copy trading.
package monitor

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/clde-code/polycopy/market"
)

// CSV column layout for trade history files:
// timestamp,market_id,trader,side,price,size
const csvColumns = 6

// CSVFeed replays trade history from a CSV file, one event per Next
// call, in file order.
type CSVFeed struct {
	f    *os.File
	r    *csv.Reader
	line int
}

func OpenCSVFeed(path string) (*CSVFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trade history %s: %w", path, err)
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = csvColumns

	// Skip a header row if present.
	first, err := r.Read()
	if err != nil && err != io.EOF {
		f.Close()
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	feed := &CSVFeed{f: f, r: r, line: 1}
	if err == nil {
		if _, perr := strconv.ParseFloat(first[4], 64); perr != nil {
			return feed, nil // header consumed
		}
		// First row was data; re-open so Next sees it.
		if _, serr := f.Seek(0, io.SeekStart); serr != nil {
			f.Close()
			return nil, serr
		}
		feed.r = csv.NewReader(f)
		feed.r.FieldsPerRecord = csvColumns
		feed.line = 0
	}
	return feed, nil
}

func (c *CSVFeed) Next() (market.TradeEvent, bool, error) {
	row, err := c.r.Read()
	if err == io.EOF {
		return market.TradeEvent{}, false, nil
	}
	if err != nil {
		return market.TradeEvent{}, false, err
	}
	c.line++

	ts, err := time.Parse(time.RFC3339, row[0])
	if err != nil {
		return market.TradeEvent{}, false, fmt.Errorf("line %d: bad timestamp %q: %w", c.line, row[0], err)
	}
	var side market.Side
	switch row[3] {
	case "BUY":
		side = market.Buy
	case "SELL":
		side = market.Sell
	default:
		return market.TradeEvent{}, false, fmt.Errorf("line %d: unknown side %q", c.line, row[3])
	}
	price, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return market.TradeEvent{}, false, fmt.Errorf("line %d: bad price %q: %w", c.line, row[4], err)
	}
	size, err := strconv.ParseFloat(row[5], 64)
	if err != nil {
		return market.TradeEvent{}, false, fmt.Errorf("line %d: bad size %q: %w", c.line, row[5], err)
	}

	return market.TradeEvent{
		ID:             fmt.Sprintf("%s:%d", row[1], c.line),
		MarketID:       row[1],
		Trader:         row[2],
		Side:           side,
		ReferencePrice: price,
		Size:           size,
		SizeQuote:      size * price,
		ObservedAt:     ts,
	}, true, nil
}

func (c *CSVFeed) Close() error { return c.f.Close() }

// JSONLFeed replays trade events stored one JSON object per line, the
// same shape market.TradeEvent marshals to. Blank lines are skipped.
type JSONLFeed struct {
	f  *os.File
	sc *bufio.Scanner
}

func OpenJSONLFeed(path string) (*JSONLFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trade history %s: %w", path, err)
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &JSONLFeed{f: f, sc: sc}, nil
}

func (j *JSONLFeed) Next() (market.TradeEvent, bool, error) {
	for j.sc.Scan() {
		line := j.sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev market.TradeEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return market.TradeEvent{}, false, fmt.Errorf("decode trade event: %w", err)
		}
		if ev.SizeQuote == 0 {
			ev.SizeQuote = ev.Size * ev.ReferencePrice
		}
		return ev, true, nil
	}
	if err := j.sc.Err(); err != nil {
		return market.TradeEvent{}, false, err
	}
	return market.TradeEvent{}, false, nil
}

func (j *JSONLFeed) Close() error { return j.f.Close() }

// SliceFeed serves a fixed slice of events. Used in tests and for
// synthetic runs.
type SliceFeed struct {
	events []market.TradeEvent
	pos    int
}

func NewSliceFeed(events []market.TradeEvent) *SliceFeed {
	return &SliceFeed{events: events}
}

func (s *SliceFeed) Next() (market.TradeEvent, bool, error) {
	if s.pos >= len(s.events) {
		return market.TradeEvent{}, false, nil
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, true, nil
}

func (s *SliceFeed) Close() error { return nil }
