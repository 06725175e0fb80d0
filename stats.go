// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"sync"

	"github.com/sassoftware/viya-pdf-autoxtract/selector"
)

// Stats summarises the parses a processor has run.
type Stats struct {
	TotalParses         int                         `json:"totalParses"`
	FailedParses        int                         `json:"failedParses"`
	MethodUsage         map[selector.Method]int     `json:"methodUsage"`
	AverageDurationMs   map[selector.Method]float64 `json:"averageTimes"`
	BenchmarksCollected int                         `json:"benchmarksCollected"`
}

type statsRecorder struct {
	mu     sync.Mutex
	total  int
	failed int
	usage  map[selector.Method]int
	sumMs  map[selector.Method]float64
}

func newStatsRecorder() *statsRecorder {
	return &statsRecorder{
		usage: make(map[selector.Method]int),
		sumMs: make(map[selector.Method]float64),
	}
}

func (s *statsRecorder) success(m selector.Method, durationMs float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	s.usage[m]++
	s.sumMs[m] += durationMs
}

func (s *statsRecorder) failure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed++
}

func (s *statsRecorder) snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Stats{
		TotalParses:       s.total,
		FailedParses:      s.failed,
		MethodUsage:       make(map[selector.Method]int, len(selector.Methods)),
		AverageDurationMs: make(map[selector.Method]float64, len(s.usage)),
	}
	for _, m := range selector.Methods {
		out.MethodUsage[m] = s.usage[m]
	}
	for m, n := range s.usage {
		out.AverageDurationMs[m] = s.sumMs[m] / float64(n)
	}
	return out
}
