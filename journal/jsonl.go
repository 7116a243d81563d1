package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// JSONL appends one JSON object per line. Files are readable back with
// ReadFills for post-run inspection.
type JSONL struct {
	mu   sync.Mutex
	f    *os.File
	w    *bufio.Writer
	path string
}

func NewJSONL(path string) (*JSONL, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	return &JSONL{f: f, w: bufio.NewWriter(f), path: path}, nil
}

func (j *JSONL) RecordFill(r FillRecord) error   { return j.writeLine(r) }
func (j *JSONL) RecordClose(r CloseRecord) error { return j.writeLine(r) }

func (j *JSONL) writeLine(v any) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode journal record: %w", err)
	}
	if _, err := j.w.Write(append(data, '\n')); err != nil {
		return err
	}
	// Flush per record: the journal is the audit trail and must
	// survive a crash mid-run.
	return j.w.Flush()
}

func (j *JSONL) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.w.Flush(); err != nil {
		return err
	}
	return j.f.Close()
}

// ReadFills loads every fill record from a JSONL journal file. Lines
// that do not decode as fill records (e.g. close records) are skipped.
func ReadFills(path string) ([]FillRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var out []FillRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var rec FillRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			continue
		}
		if rec.Event.MarketID == "" {
			continue
		}
		out = append(out, rec)
	}
	return out, sc.Err()
}

// Stats summarizes a journal file: how many executions were attempted
// and how many succeeded.
type Stats struct {
	Total      int
	Successful int
	Failed     int
}

func ReadStats(path string) (Stats, error) {
	fills, err := ReadFills(path)
	if err != nil {
		return Stats{}, err
	}
	s := Stats{Total: len(fills)}
	for _, r := range fills {
		if r.Success {
			s.Successful++
		} else {
			s.Failed++
		}
	}
	return s, nil
}
