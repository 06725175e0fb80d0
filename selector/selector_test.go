// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package selector

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sassoftware/viya-pdf-autoxtract/analyze"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gib = 1 << 30

func analysis(pages int, size int64, cores int, mem uint64) analyze.Analysis {
	return analyze.Analysis{
		SizeBytes:            size,
		PageCount:            pages,
		EstimatedComplexity:  analyze.Classify(size, pages),
		AvailableMemoryBytes: mem,
		CPUCores:             cores,
	}
}

type fixedPrecedent struct {
	out Outcome
	ok  bool
}

func (f fixedPrecedent) Best(int) (Outcome, bool) { return f.out, f.ok }

func TestSelect_Table(t *testing.T) {
	s := New(DefaultTable(), false)
	tests := []struct {
		name      string
		a         analyze.Analysis
		method    Method
		batchSize int
	}{
		{"tiny", analysis(10, 100_000, 8, gib), Batch, 5},
		{"small", analysis(11, 100_000, 8, gib), Batch, 10},
		{"small upper", analysis(50, 500_000, 8, gib), Batch, 10},
		{"medium", analysis(200, 2_000_000, 8, gib), Batch, 20},
		{"large", analysis(201, 2_000_000, 8, gib), Batch, 50},
		{"x-large", analysis(1000, 10_000_000, 8, gib), Batch, 50},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			d := s.Select(tt.a, "", nil)
			assert.Equal(t, tt.method, d.Name)
			assert.Equal(t, InProcess, d.Kind)
			assert.Equal(t, tt.batchSize, d.Config.BatchSize)
			assert.Equal(t, FromTable, d.Source)
		})
	}
}

func TestSelect_MemoryCheck(t *testing.T) {
	s := New(DefaultTable(), false)

	// 600 pages need 30_000_000 bytes; stream only when that exceeds 1.5x free memory.
	roomy := s.Select(analysis(600, 2_000_000, 8, 20_000_001), "", nil)
	assert.Equal(t, Batch, roomy.Name, "30MB <= 1.5 * 20MB")
	assert.Equal(t, 50, roomy.Config.BatchSize)

	tight := s.Select(analysis(600, 2_000_000, 8, 19_999_999), "", nil)
	assert.Equal(t, Stream, tight.Name, "30MB > 1.5 * ~20MB")
	assert.Equal(t, 10, tight.Config.BatchSize)
	assert.Equal(t, 1000, tight.Config.ChunkSize)
}

func TestSelect_Huge(t *testing.T) {
	s := New(DefaultTable(), false)
	d := s.Select(analysis(2000, 40_000_000, 8, 4*gib), "", nil)
	assert.Equal(t, Processes, d.Name)
	assert.Equal(t, ProcessPool, d.Kind)
	assert.Equal(t, 7, d.Config.MaxWorkers)
	assert.Equal(t, 500, d.Config.ChunkSize)
	assert.Equal(t, 10, d.Config.BatchSize)

	threads := New(DefaultTable(), true).Select(analysis(2000, 40_000_000, 8, 4*gib), "", nil)
	assert.Equal(t, Workers, threads.Name)
	assert.Equal(t, ThreadPool, threads.Kind)
	assert.Equal(t, 7, threads.Config.MaxWorkers)

	few := s.Select(analysis(2000, 40_000_000, 2, 4*gib), "", nil)
	assert.Equal(t, Stream, few.Name, "fewer than four cores streams instead")
}

func TestSelect_Deterministic(t *testing.T) {
	s := New(DefaultTable(), false)
	a := analysis(750, 9_000_000, 6, gib)
	first := s.Select(a, "", nil)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, s.Select(a, "", nil))
	}
}

func TestSelect_Override(t *testing.T) {
	s := New(DefaultTable(), false)
	a := analysis(5, 10_000, 8, gib)

	d := s.Select(a, " Aggressive ", fixedPrecedent{Outcome{Method: Sequential}, true})
	assert.Equal(t, Aggressive, d.Name)
	assert.Equal(t, FromOverride, d.Source)
	assert.Equal(t, Config{ChunkSize: 500, BatchSize: 20}, d.Config)

	unknown := s.Select(a, "turbo", nil)
	assert.Equal(t, Batch, unknown.Name)
	assert.Equal(t, FromOverride, unknown.Source)
}

func TestSelect_History(t *testing.T) {
	s := New(DefaultTable(), false)
	a := analysis(100, 1_000_000, 8, gib)

	d := s.Select(a, "", fixedPrecedent{Outcome{Method: Stream, Config: Config{ChunkSize: 250}, DurationMs: 12}, true})
	assert.Equal(t, Stream, d.Name)
	assert.Equal(t, FromHistory, d.Source)
	assert.Equal(t, 250, d.Config.ChunkSize)
	assert.Equal(t, 10, d.Config.BatchSize, "missing fields come from the canonical config")

	bogus := s.Select(a, "", fixedPrecedent{Outcome{Method: "warp"}, true})
	assert.Equal(t, FromTable, bogus.Source)

	none := s.Select(a, "", fixedPrecedent{})
	assert.Equal(t, FromTable, none.Source)

	seq := s.Select(a, "", fixedPrecedent{Outcome{Method: Sequential, Config: Config{BatchSize: 8, ChunkSize: 3, MaxWorkers: 2}}, true})
	assert.Equal(t, Config{BatchSize: 1}, seq.Config)
}

func TestConfig_For(t *testing.T) {
	c := Config{BatchSize: 8, ChunkSize: 3, MaxWorkers: 2}
	tests := []struct {
		method Method
		want   Config
	}{
		{Sequential, Config{BatchSize: 1}},
		{Batch, Config{BatchSize: 8}},
		{Stream, Config{BatchSize: 8, ChunkSize: 3}},
		{Aggressive, Config{BatchSize: 8, ChunkSize: 3}},
		{Workers, c},
		{Processes, c},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.method), func(t *testing.T) {
			assert.Equal(t, tt.want, c.For(tt.method))
		})
	}
}

func TestSelect_TableTierFieldsFollowMethod(t *testing.T) {
	table := DefaultTable()
	table.Tiers[0].ChunkSize = 99
	d := New(table, false).Select(analysis(5, 50_000, 8, gib), "", nil)
	assert.Equal(t, Batch, d.Name)
	assert.Equal(t, Config{BatchSize: 5}, d.Config)
}

func TestAdaptiveBatchSize(t *testing.T) {
	tests := []struct {
		name       string
		pages      int
		complexity analyze.Complexity
		want       int
	}{
		{"medium", 100, analyze.Medium, 10},
		{"simple", 100, analyze.Simple, 20},
		{"complex", 100, analyze.Complex, 5},
		{"large medium", 300, analyze.Medium, 20},
		{"large simple", 300, analyze.Simple, 40},
		{"large complex", 300, analyze.Complex, 10},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			a := analyze.Analysis{PageCount: tt.pages, EstimatedComplexity: tt.complexity}
			assert.Equal(t, tt.want, AdaptiveBatchSize(a))
		})
	}
}

func TestAdaptiveChunkSize(t *testing.T) {
	tests := []struct {
		name string
		a    analyze.Analysis
		want int
	}{
		{"plenty of memory", analysis(100, 1_000_000, 4, gib), 1000},
		{"tight memory", analysis(100, 10_000_000, 4, 20_000_000), 100},
		{"in range", analysis(100, 1_000_000, 4, 5_000_000), 250},
		{"no pages", analysis(0, 0, 4, gib), 1000},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AdaptiveChunkSize(tt.a))
		})
	}
}

func TestFanoutWorkers(t *testing.T) {
	assert.Equal(t, 2, FanoutWorkers(1))
	assert.Equal(t, 2, FanoutWorkers(3))
	assert.Equal(t, 7, FanoutWorkers(8))
}

func TestParseMethod(t *testing.T) {
	m, ok := ParseMethod("PROCESSES")
	assert.True(t, ok)
	assert.Equal(t, Processes, m)
	assert.True(t, m.IsFanout())
	assert.False(t, Stream.IsFanout())

	_, ok = ParseMethod("")
	assert.False(t, ok)
}

func TestTable_Validate(t *testing.T) {
	require.NoError(t, DefaultTable().Validate())

	bad := DefaultTable()
	bad.Tiers[2].MaxPages = 5
	assert.Error(t, bad.Validate(), "tiers must ascend")

	bad = DefaultTable()
	bad.Tiers[1].MaxPages = 0
	assert.Error(t, bad.Validate(), "unbounded tier must be last")

	bad = DefaultTable()
	bad.Tiers[0].Method = "turbo"
	assert.Error(t, bad.Validate())

	bad = DefaultTable()
	bad.Tiers[5].Fallback = ""
	assert.Error(t, bad.Validate(), "minCores needs a fallback")

	bad = DefaultTable()
	bad.MemoryHeadroom = 0
	assert.Error(t, bad.Validate())
}

func TestTable_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DefaultTable().WriteJSON(&buf))

	got, err := LoadTable(&buf)
	require.NoError(t, err)
	assert.Equal(t, DefaultTable(), got)
}

func TestLoadTable_Errors(t *testing.T) {
	_, err := LoadTable(strings.NewReader(`{"tiers": [], "memoryPerPage": 1, "memoryHeadroom": 1}`))
	assert.Error(t, err)

	_, err = LoadTable(strings.NewReader(`{"unknown": true}`))
	assert.Error(t, err)
}

func TestTable_Lookup(t *testing.T) {
	tier, ok := DefaultTable().Lookup(1_000_000)
	require.True(t, ok)
	assert.Equal(t, Processes, tier.Method)

	bounded := Table{Tiers: []Tier{{MaxPages: 10, Method: Batch}}}
	_, ok = bounded.Lookup(11)
	assert.False(t, ok)
}
