// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package selector decides which strategy should parse a document.
package selector

import (
	"fmt"
	"math"

	"github.com/sassoftware/viya-pdf-autoxtract/analyze"
	"github.com/sassoftware/viya-pdf-autoxtract/logger"
)

// Tuning constants for the adaptive sizes and canonical configs.
const (
	baseBatchSize       = 10
	maxBatchSize        = 50
	largeDocumentPages  = 200
	minChunkSize        = 100
	maxChunkSize        = 1000
	chunkSafetyFactor   = 2
	streamBatchSize     = 10
	aggressiveChunkSize = 500
	aggressiveBatchSize = 20
	fanoutBatchSize     = 10
	minFanoutWorkers    = 2
)

// Outcome is a past parse result offered as precedent.
type Outcome struct {
	Method     Method
	Config     Config
	DurationMs float64
}

// Precedent supplies the best known outcome for documents of a similar size.
type Precedent interface {
	Best(pageCount int) (Outcome, bool)
}

// Selector maps an Analysis onto a Descriptor. It holds no mutable state.
type Selector struct {
	Table Table
	// PreferThreads swaps process-pool fanout for thread-pool fanout when
	// the table asks for processes.
	PreferThreads bool
}

// New returns a Selector over table.
func New(table Table, preferThreads bool) *Selector {
	return &Selector{Table: table, PreferThreads: preferThreads}
}

// Select never fails: an override wins, then precedent, then the table.
// An unknown override resolves to the batch strategy.
func (s *Selector) Select(a analyze.Analysis, override string, past Precedent) Descriptor {
	if override != "" {
		m, ok := ParseMethod(override)
		if !ok {
			logger.Warn("unknown forced method, using batch", "method", override)
			m = Batch
		}
		d := Canonical(m, a)
		d.Source = FromOverride
		return d
	}

	if past != nil && a.PageCount > 0 {
		if o, ok := past.Best(a.PageCount); ok {
			if m, known := ParseMethod(string(o.Method)); known {
				d := Canonical(m, a)
				d.Config = d.Config.Merge(o.Config).For(m)
				d.Source = FromHistory
				logger.Debug(fmt.Sprintf("Using historical best: method=%s duration_ms=%.2f", m, o.DurationMs), true)
				return d
			}
		}
	}

	d := s.fromTable(a)
	d.Source = FromTable
	return d
}

func (s *Selector) fromTable(a analyze.Analysis) Descriptor {
	tier, ok := s.Table.Lookup(a.PageCount)
	if !ok {
		return Canonical(Batch, a)
	}

	if tier.MinCores > 0 && a.CPUCores < tier.MinCores {
		return Canonical(tier.Fallback, a)
	}

	if tier.MemoryCheck {
		needed := float64(a.PageCount) * float64(s.Table.MemoryPerPage)
		if needed > s.Table.MemoryHeadroom*float64(a.AvailableMemoryBytes) {
			logger.Debug(fmt.Sprintf("Memory constrained: needed=%.0f available=%d", needed, a.AvailableMemoryBytes), true)
			return Canonical(Stream, a)
		}
	}

	m := tier.Method
	if m == Processes && s.PreferThreads {
		m = Workers
	}
	d := Canonical(m, a)
	d.Config = d.Config.Merge(Config{BatchSize: tier.BatchSize, ChunkSize: tier.ChunkSize}).For(m)
	return d
}

// Canonical returns the standard configuration of m for a.
func Canonical(m Method, a analyze.Analysis) Descriptor {
	var c Config
	switch m {
	case Sequential:
		c = Config{BatchSize: 1}
	case Stream:
		c = Config{ChunkSize: AdaptiveChunkSize(a), BatchSize: streamBatchSize}
	case Aggressive:
		c = Config{ChunkSize: aggressiveChunkSize, BatchSize: aggressiveBatchSize}
	case Workers, Processes:
		c = Config{ChunkSize: AdaptiveChunkSize(a), BatchSize: fanoutBatchSize, MaxWorkers: FanoutWorkers(a.CPUCores)}
	default:
		m = Batch
		c = Config{BatchSize: AdaptiveBatchSize(a)}
	}
	return Descriptor{Name: m, Kind: m.Kind(), Config: c}
}

// AdaptiveBatchSize starts at 10, doubles for simple documents, halves for
// complex ones, then doubles again (capped at 50) above 200 pages.
func AdaptiveBatchSize(a analyze.Analysis) int {
	size := baseBatchSize
	switch a.EstimatedComplexity {
	case analyze.Simple:
		size *= 2
	case analyze.Complex:
		size /= 2
	}
	if a.PageCount > largeDocumentPages {
		size = min(maxBatchSize, size*2)
	}
	return size
}

// AdaptiveChunkSize budgets twice the per-page byte size against available
// memory and clamps the result to [100, 1000].
func AdaptiveChunkSize(a analyze.Analysis) int {
	bpp := a.BytesPerPage()
	if bpp <= 0 {
		return maxChunkSize
	}
	safe := math.Floor(float64(a.AvailableMemoryBytes) / (bpp * chunkSafetyFactor))
	switch {
	case safe < minChunkSize:
		return minChunkSize
	case safe > maxChunkSize:
		return maxChunkSize
	default:
		return int(safe)
	}
}

// FanoutWorkers leaves one core free but never goes below two workers.
func FanoutWorkers(cores int) int {
	return max(minFanoutWorkers, cores-1)
}
