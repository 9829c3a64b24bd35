package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"protocolLens/internal/model"
)

// JsonlStorage keeps daily records as JSON lines in a file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutRecords appends a batch of records as JSON lines.
func (s *JsonlStorage) PutRecords(_ context.Context, records []model.DailyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AppendLines(s.path, records)
}

// AppendLines appends items to path, one JSON document per line, creating
// the parent directory when needed.
func AppendLines[T any](path string, items []T) error {
	if len(items) == 0 {
		return nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, item := range items {
		line, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal line: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write line: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

// FetchRange returns records dated within [from, to] by calendar day, newest
// first. A zero bound is open.
func (s *JsonlStorage) FetchRange(ctx context.Context, from, to time.Time) ([]model.DailyRecord, error) {
	all, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.DailyRecord, 0, len(all))
	for _, rec := range all {
		if !from.IsZero() && rec.Date.Before(model.Day(from)) {
			continue
		}
		if !to.IsZero() && rec.Date.After(model.Day(to)) {
			continue
		}
		out = append(out, rec)
	}
	model.SortDescending(out)
	return out, nil
}

// FetchDay returns the snapshot for one calendar day.
func (s *JsonlStorage) FetchDay(ctx context.Context, day time.Time) (model.DailyRecord, bool, error) {
	records, err := s.FetchRange(ctx, day, day)
	if err != nil {
		return model.DailyRecord{}, false, err
	}
	if len(records) == 0 {
		return model.DailyRecord{}, false, nil
	}
	return records[0], true, nil
}

// readAll decodes every line; a later line for an already seen date replaces
// the earlier one.
func (s *JsonlStorage) readAll(ctx context.Context) ([]model.DailyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	byDate := make(map[time.Time]int)
	var records []model.DailyRecord
	var lineNo int
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec model.DailyRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("decode line %d: %w", lineNo, err)
		}
		if idx, ok := byDate[rec.Date]; ok {
			records[idx] = rec
			continue
		}
		byDate[rec.Date] = len(records)
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}
	return records, nil
}
