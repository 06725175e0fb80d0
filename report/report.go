// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package report renders the benchmark summary for people.
package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/sassoftware/viya-pdf-autoxtract/history"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Markdown writes one section per page range with a GFM table of method
// timings.
func Markdown(w io.Writer, summaries []history.RangeSummary, total int) error {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# Benchmark Summary\n\nTotal benchmarks: %d\n", total)
	for _, s := range summaries {
		fmt.Fprintf(&b, "\n## %s\n\n", s.Range.Name)
		if s.Samples == 0 {
			b.WriteString("_No successful runs._\n")
			continue
		}
		if s.Recommended != "" {
			fmt.Fprintf(&b, "Samples: %d. Recommended: **%s** (avg %.2f ms)\n\n", s.Samples, s.Recommended, s.AverageMs)
		} else {
			fmt.Fprintf(&b, "Samples: %d. Not enough runs per method to recommend one.\n\n", s.Samples)
		}
		b.WriteString("| Method | Runs | Avg ms | Median ms | Min ms | Max ms |\n")
		b.WriteString("|---|---:|---:|---:|---:|---:|\n")
		for _, m := range s.Methods {
			fmt.Fprintf(&b, "| %s | %d | %.2f | %.2f | %.2f | %.2f |\n",
				m.Method, m.Count, m.AverageMs, m.MedianMs, m.MinMs, m.MaxMs)
		}
	}
	_, err := w.Write(b.Bytes())
	return err
}

// HTML renders the Markdown summary into a standalone page.
func HTML(w io.Writer, summaries []history.RangeSummary, total int) error {
	var src bytes.Buffer
	if err := Markdown(&src, summaries, total); err != nil {
		return err
	}
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var body bytes.Buffer
	if err := md.Convert(src.Bytes(), &body); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"><title>Benchmark Summary</title></head>\n<body>\n%s</body>\n</html>\n", body.Bytes())
	return err
}
