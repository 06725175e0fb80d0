// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package analyze characterises a document and the host it will be parsed on.
package analyze

import (
	"fmt"
	"runtime"

	"github.com/sassoftware/viya-pdf-autoxtract/document"
	"github.com/sassoftware/viya-pdf-autoxtract/logger"
)

// Complexity is a coarse estimate of per-page rendering cost.
type Complexity string

const (
	Simple  Complexity = "simple"
	Medium  Complexity = "medium"
	Complex Complexity = "complex"
)

// Calibration constants for page count estimation and complexity.
const (
	SimpleBytesPerPage   = 10_000
	ComplexBytesPerPage  = 100_000
	EstimateBytesPerPage = 50_000
	MinEstimatedPages    = 10
)

// Analysis is created once per parse and never modified afterwards.
type Analysis struct {
	SizeBytes            int64      `json:"sizeBytes"`
	PageCount            int        `json:"pageCount"`
	PageCountEstimated   bool       `json:"pageCountEstimated,omitempty"`
	EstimatedComplexity  Complexity `json:"estimatedComplexity"`
	AvailableMemoryBytes uint64     `json:"availableMemoryBytes"`
	CPUCores             int        `json:"cpuCores"`
}

// BytesPerPage returns SizeBytes/PageCount, or 0 for an empty document.
func (a Analysis) BytesPerPage() float64 {
	if a.PageCount <= 0 {
		return 0
	}
	return float64(a.SizeBytes) / float64(a.PageCount)
}

// Host is a point-in-time snapshot of the machine's resources.
type Host struct {
	CPUCores        int
	AvailableMemory uint64
}

// CurrentHost reads the current CPU count and free memory.
func CurrentHost() Host {
	return Host{
		CPUCores:        runtime.NumCPU(),
		AvailableMemory: freeMemory(),
	}
}

// Classify maps bytes-per-page onto a complexity class.
func Classify(sizeBytes int64, pageCount int) Complexity {
	if pageCount <= 0 {
		return Medium
	}
	bpp := float64(sizeBytes) / float64(pageCount)
	switch {
	case bpp < SimpleBytesPerPage:
		return Simple
	case bpp > ComplexBytesPerPage:
		return Complex
	default:
		return Medium
	}
}

// EstimatePages guesses a page count from the raw size alone.
func EstimatePages(sizeBytes int64) int {
	n := int(sizeBytes / EstimateBytesPerPage)
	if n < MinEstimatedPages {
		return MinEstimatedPages
	}
	return n
}

// Analyze opens data far enough to count pages. When the document cannot be
// opened the page count is estimated from the size instead of failing.
func Analyze(open document.Opener, data []byte, host Host) Analysis {
	size := int64(len(data))
	pages, err := countPages(open, data)
	if err != nil {
		logger.Warn("analyze: falling back to size-based page estimate", "err", err)
		a := Describe(size, EstimatePages(size), host)
		a.PageCountEstimated = true
		return a
	}
	return Describe(size, pages, host)
}

// Describe builds the analysis of a document whose page count is already
// known, for callers that hold the document open anyway.
func Describe(sizeBytes int64, pageCount int, host Host) Analysis {
	a := Analysis{
		SizeBytes:            sizeBytes,
		PageCount:            pageCount,
		EstimatedComplexity:  Classify(sizeBytes, pageCount),
		AvailableMemoryBytes: host.AvailableMemory,
		CPUCores:             max(host.CPUCores, 1),
	}
	logger.Debug(fmt.Sprintf("Analysis: pages=%d size=%d complexity=%s cores=%d free_mem=%d",
		a.PageCount, a.SizeBytes, a.EstimatedComplexity, a.CPUCores, a.AvailableMemoryBytes), true)
	return a
}

func countPages(open document.Opener, data []byte) (n int, err error) {
	doc, err := open(data)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return doc.NumPage(), nil
}
