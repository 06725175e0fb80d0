// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sassoftware/viya-pdf-autoxtract/analyze"
	"github.com/sassoftware/viya-pdf-autoxtract/selector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(pages int, m selector.Method, ms float64, ok bool) Record {
	return Record{PageCount: pages, Method: m, DurationMs: ms, Success: ok}
}

func TestRecords_Best(t *testing.T) {
	rs := Records{
		rec(100, selector.Batch, 300, true),
		rec(110, selector.Stream, 120, true),
		rec(95, selector.Aggressive, 50, false), // failed runs never count
		rec(130, selector.Sequential, 10, true), // 30% away
		rec(85, selector.Workers, 200, true),
	}

	best, ok := rs.Best(100)
	require.True(t, ok)
	assert.Equal(t, selector.Stream, best.Method)
	assert.Equal(t, 120.0, best.DurationMs)

	_, ok = rs.Best(1000)
	assert.False(t, ok)

	_, ok = rs.Best(0)
	assert.False(t, ok)
}

func TestRecords_SimilarBoundary(t *testing.T) {
	rs := Records{rec(120, selector.Batch, 1, true), rec(119, selector.Stream, 1, true)}
	similar := rs.Similar(100)
	require.Len(t, similar, 1, "exactly 20% away is not similar")
	assert.Equal(t, selector.Stream, similar[0].Method)
}

func TestNewRecord(t *testing.T) {
	a := analyze.Analysis{PageCount: 12, SizeBytes: 3400, EstimatedComplexity: analyze.Simple, CPUCores: 4, AvailableMemoryBytes: 99}
	d := selector.Descriptor{Name: selector.Batch, Config: selector.Config{BatchSize: 10}}

	r := NewRecord(a, d, 1500*time.Microsecond, true)
	assert.Equal(t, 12, r.PageCount)
	assert.Equal(t, selector.Batch, r.Method)
	assert.Equal(t, 10, r.Config.BatchSize)
	assert.Equal(t, 1.5, r.DurationMs)
	assert.True(t, r.Success)
	assert.False(t, r.Timestamp.IsZero())
}

func TestStore_PersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.jsonl")

	s, err := Open(path, 3)
	require.NoError(t, err)
	for i := 1; i <= 5; i++ {
		require.NoError(t, s.Append(rec(i*10, selector.Batch, float64(i), true)))
	}
	assert.Equal(t, 3, s.Len(), "memory is capped")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, strings.Count(string(raw), "\n"), "file is append-only")

	reloaded, err := Open(path, 3)
	require.NoError(t, err)
	got := reloaded.Records()
	require.Len(t, got, 3)
	assert.Equal(t, 30, got[0].PageCount)
	assert.Equal(t, 50, got[2].PageCount)
}

func TestStore_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.jsonl")
	content := `{"pageCount": 10, "method": "batch", "durationMs": 5, "success": true}
not json at all

{"pageCount": 11, "method": "stream", "durationMs": 4, "success": true}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Open(path, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	best, ok := s.Best(10)
	require.True(t, ok)
	assert.Equal(t, selector.Stream, best.Method)
}

func TestStore_CompactsLargeLogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.jsonl")
	var b strings.Builder
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&b, `{"pageCount": %d, "method": "batch", "durationMs": 1, "success": true}`+"\n", i)
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	_, err := Open(path, 10)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 10, strings.Count(string(raw), "\n"))
}

func TestStore_InMemory(t *testing.T) {
	s, err := Open("", 2)
	require.NoError(t, err)
	require.NoError(t, s.Append(rec(1, selector.Batch, 1, true)))
	require.NoError(t, s.Compact())
	assert.Equal(t, 1, s.Len())
}

func TestSummarize(t *testing.T) {
	rs := Records{
		rec(10, selector.Batch, 10, true),
		rec(20, selector.Batch, 20, true),
		rec(30, selector.Sequential, 5, true), // one sample is not enough
		rec(40, selector.Stream, 1, false),
		rec(600, selector.Stream, 100, true),
		rec(700, selector.Stream, 300, true),
		rec(800, selector.Batch, 150, true),
		rec(900, selector.Batch, 170, true),
	}

	sums := Summarize(rs, DefaultRanges)
	require.Len(t, sums, 4)

	small := sums[0]
	assert.Equal(t, 3, small.Samples)
	assert.Equal(t, selector.Batch, small.Recommended)
	assert.Equal(t, 15.0, small.AverageMs)
	require.Len(t, small.Methods, 2)
	assert.Equal(t, selector.Sequential, small.Methods[0].Method, "methods sorted by average")

	assert.Zero(t, sums[1].Samples)
	assert.Empty(t, sums[1].Recommended)

	large := sums[2]
	assert.Equal(t, selector.Batch, large.Recommended)
	assert.Equal(t, 160.0, large.AverageMs)
	for _, m := range large.Methods {
		if m.Method == selector.Stream {
			assert.Equal(t, 100.0, m.MinMs)
			assert.Equal(t, 300.0, m.MaxMs)
			assert.Equal(t, 300.0, m.MedianMs)
		}
	}
}

func TestRange_Contains(t *testing.T) {
	r := Range{Min: 50, Max: 500}
	assert.True(t, r.Contains(50))
	assert.False(t, r.Contains(500))
	assert.True(t, Range{Min: 1000}.Contains(1<<20))
}
