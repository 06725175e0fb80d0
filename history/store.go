// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package history

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sassoftware/viya-pdf-autoxtract/logger"
	"github.com/sassoftware/viya-pdf-autoxtract/selector"
)

// DefaultLimit is how many records are kept in memory.
const DefaultLimit = 1000

// Store is a benchmark log backed by a JSON-lines file. An empty path keeps
// records in memory only.
type Store struct {
	mu      sync.Mutex
	path    string
	limit   int
	records Records
}

// Open loads the log at path, keeping the newest limit records. Lines that
// fail to decode are skipped.
func Open(path string, limit int) (*Store, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	s := &Store{path: path, limit: limit}
	if path == "" {
		return s, nil
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open benchmark log: %w", err)
	}
	defer f.Close()

	total, err := s.load(f)
	if err != nil {
		return nil, err
	}
	if total > 2*limit {
		if err := s.Compact(); err != nil {
			logger.Warn("benchmark log compaction failed", "path", path, "err", err)
		}
	}
	return s, nil
}

func (s *Store) load(r io.Reader) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	total, line := 0, 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			logger.Warn("skipping malformed benchmark record", "path", s.path, "line", line, "err", err)
			continue
		}
		total++
		s.records = append(s.records, rec)
		if len(s.records) > s.limit {
			s.records = s.records[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return total, fmt.Errorf("read benchmark log: %w", err)
	}
	logger.Debug(fmt.Sprintf("Loaded benchmark log: path=%s records=%d", s.path, len(s.records)))
	return total, nil
}

// Append adds rec to memory and to the log file.
func (s *Store) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	if len(s.records) > s.limit {
		s.records = append(Records(nil), s.records[len(s.records)-s.limit:]...)
	}
	if s.path == "" {
		return nil
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode benchmark record: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open benchmark log: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("write benchmark log: %w", err)
	}
	return f.Close()
}

// Compact rewrites the log file with only the records held in memory.
func (s *Store) Compact() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".benchmarks-*.jsonl")
	if err != nil {
		return fmt.Errorf("compact benchmark log: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	for _, rec := range s.records {
		if err := enc.Encode(rec); err != nil {
			tmp.Close()
			return fmt.Errorf("compact benchmark log: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("compact benchmark log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("compact benchmark log: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

// Records returns a copy of the in-memory log.
func (s *Store) Records() Records {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(Records(nil), s.records...)
}

// Len returns the number of records in memory.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Best satisfies selector.Precedent.
func (s *Store) Best(pageCount int) (selector.Outcome, bool) {
	return s.Records().Best(pageCount)
}
