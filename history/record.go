// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package history keeps the append-only benchmark log that biases future
// strategy selection. Nothing in it is required for a correct parse.
package history

import (
	"math"
	"time"

	"github.com/sassoftware/viya-pdf-autoxtract/analyze"
	"github.com/sassoftware/viya-pdf-autoxtract/selector"
)

// SimilarityRatio is the relative page count difference below which two
// documents are considered alike.
const SimilarityRatio = 0.2

// Record is one benchmark entry. One JSON object per line on disk.
type Record struct {
	Timestamp            time.Time          `json:"timestamp"`
	PageCount            int                `json:"pageCount"`
	SizeBytes            int64              `json:"sizeBytes"`
	Complexity           analyze.Complexity `json:"complexity"`
	Method               selector.Method    `json:"method"`
	Config               selector.Config    `json:"config"`
	DurationMs           float64            `json:"durationMs"`
	Success              bool               `json:"success"`
	CPUCores             int                `json:"cpuCores"`
	AvailableMemoryBytes uint64             `json:"availableMemoryBytes"`
}

// NewRecord builds a record from a finished parse.
func NewRecord(a analyze.Analysis, d selector.Descriptor, elapsed time.Duration, success bool) Record {
	return Record{
		Timestamp:            time.Now().UTC(),
		PageCount:            a.PageCount,
		SizeBytes:            a.SizeBytes,
		Complexity:           a.EstimatedComplexity,
		Method:               d.Name,
		Config:               d.Config,
		DurationMs:           float64(elapsed.Microseconds()) / 1000,
		Success:              success,
		CPUCores:             a.CPUCores,
		AvailableMemoryBytes: a.AvailableMemoryBytes,
	}
}

// Records is an in-memory benchmark log.
type Records []Record

// Similar returns the successful records whose page count is within
// SimilarityRatio of pageCount.
func (rs Records) Similar(pageCount int) Records {
	if pageCount <= 0 {
		return nil
	}
	var out Records
	for _, r := range rs {
		diff := math.Abs(float64(r.PageCount-pageCount)) / float64(pageCount)
		if r.Success && diff < SimilarityRatio {
			out = append(out, r)
		}
	}
	return out
}

// Best returns the fastest similar record. It satisfies selector.Precedent.
func (rs Records) Best(pageCount int) (selector.Outcome, bool) {
	similar := rs.Similar(pageCount)
	if len(similar) == 0 {
		return selector.Outcome{}, false
	}
	best := similar[0]
	for _, r := range similar[1:] {
		if r.DurationMs < best.DurationMs {
			best = r
		}
	}
	return selector.Outcome{Method: best.Method, Config: best.Config, DurationMs: best.DurationMs}, true
}
