// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package history

import (
	"math"
	"sort"

	"github.com/sassoftware/viya-pdf-autoxtract/selector"
)

// MinSamplesForRecommendation is how many successful runs a method needs
// before a tier can recommend it.
const MinSamplesForRecommendation = 2

// Range is a half-open page count interval [Min, Max). Max of 0 is unbounded.
type Range struct {
	Name string `json:"name"`
	Min  int    `json:"min"`
	Max  int    `json:"max,omitempty"`
}

// Contains reports whether pages falls in r.
func (r Range) Contains(pages int) bool {
	return pages >= r.Min && (r.Max == 0 || pages < r.Max)
}

// DefaultRanges are the page count groups used by Summarize.
var DefaultRanges = []Range{
	{Name: "Small (0-50)", Min: 0, Max: 50},
	{Name: "Medium (50-500)", Min: 50, Max: 500},
	{Name: "Large (500-1000)", Min: 500, Max: 1000},
	{Name: "Huge (1000+)", Min: 1000},
}

// MethodStats aggregates the durations of one method within a range.
type MethodStats struct {
	Method    selector.Method `json:"method"`
	Count     int             `json:"count"`
	AverageMs float64         `json:"averageMs"`
	MedianMs  float64         `json:"medianMs"`
	MinMs     float64         `json:"minMs"`
	MaxMs     float64         `json:"maxMs"`
}

// RangeSummary is the per-range result of Summarize.
type RangeSummary struct {
	Range       Range           `json:"range"`
	Samples     int             `json:"samples"`
	Methods     []MethodStats   `json:"methods,omitempty"`
	Recommended selector.Method `json:"recommended,omitempty"`
	AverageMs   float64         `json:"averageMs,omitempty"`
}

// Summarize groups successful records by range and recommends, per range, the
// method with the lowest average duration among those with enough samples.
func Summarize(records Records, ranges []Range) []RangeSummary {
	out := make([]RangeSummary, 0, len(ranges))
	for _, rg := range ranges {
		byMethod := map[selector.Method][]float64{}
		samples := 0
		for _, r := range records {
			if !r.Success || !rg.Contains(r.PageCount) {
				continue
			}
			samples++
			byMethod[r.Method] = append(byMethod[r.Method], r.DurationMs)
		}

		sum := RangeSummary{Range: rg, Samples: samples}
		bestAvg := math.Inf(1)
		for m, ds := range byMethod {
			st := stats(m, ds)
			sum.Methods = append(sum.Methods, st)
			if st.Count >= MinSamplesForRecommendation && st.AverageMs < bestAvg {
				bestAvg = st.AverageMs
				sum.Recommended = m
			}
		}
		sort.Slice(sum.Methods, func(i, j int) bool {
			return sum.Methods[i].AverageMs < sum.Methods[j].AverageMs
		})
		if sum.Recommended != "" {
			sum.AverageMs = bestAvg
		}
		out = append(out, sum)
	}
	return out
}

func stats(m selector.Method, ds []float64) MethodStats {
	sorted := append([]float64(nil), ds...)
	sort.Float64s(sorted)
	total := 0.0
	for _, d := range sorted {
		total += d
	}
	return MethodStats{
		Method:    m,
		Count:     len(sorted),
		AverageMs: total / float64(len(sorted)),
		MedianMs:  sorted[len(sorted)/2],
		MinMs:     sorted[0],
		MaxMs:     sorted[len(sorted)-1],
	}
}
