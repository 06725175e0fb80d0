// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package executor renders page ranges of an open document with bounded
// concurrency and drives the in-process strategies.
package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/sassoftware/viya-pdf-autoxtract/document"
	"github.com/sassoftware/viya-pdf-autoxtract/logger"
	"github.com/sassoftware/viya-pdf-autoxtract/render"
	"golang.org/x/sync/errgroup"
)

// PageSeparator joins the text of consecutive pages.
const PageSeparator = "\n\n"

// JoinPages concatenates page or chunk texts in order.
func JoinPages(fragments []string) string {
	return strings.Join(fragments, PageSeparator)
}

// Plan parameterises the in-process strategies.
type Plan struct {
	// BatchSize caps concurrent page renders; 1 is fully serial.
	BatchSize int
	// ChunkSize splits the document; 0 keeps it whole.
	ChunkSize int
	// ConcurrentBatches starts every batch of a chunk at once.
	ConcurrentBatches bool
	// ReclaimMemory returns freed memory to the OS between chunks.
	ReclaimMemory bool
}

// SequentialPlan renders one page at a time.
func SequentialPlan() Plan { return Plan{BatchSize: 1} }

// BatchedPlan renders the whole document batch by batch.
func BatchedPlan(batchSize int) Plan { return Plan{BatchSize: batchSize} }

// StreamingPlan renders chunk by chunk and reclaims memory in between.
func StreamingPlan(chunkSize, batchSize int) Plan {
	return Plan{BatchSize: batchSize, ChunkSize: chunkSize, ReclaimMemory: true}
}

// AggressivePlan is StreamingPlan with all batches of a chunk in flight.
func AggressivePlan(chunkSize, batchSize int) Plan {
	return Plan{BatchSize: batchSize, ChunkSize: chunkSize, ConcurrentBatches: true, ReclaimMemory: true}
}

// Progress is reported after every chunk.
type Progress struct {
	ProcessedPages  int     `json:"processedPages"`
	TotalPages      int     `json:"totalPages"`
	ProgressPercent float64 `json:"progressPercent"`
	CurrentChunk    int     `json:"currentChunk"`
	TotalChunks     int     `json:"totalChunks"`
}

// ProgressFunc receives progress updates. It must not block for long.
type ProgressFunc func(Progress)

// Run renders pages 1..pages of doc according to plan and returns one
// fragment per page in page order.
func Run(ctx context.Context, doc document.Document, pages int, plan Plan, fn render.Func, progress ProgressFunc) ([]string, error) {
	chunks := Partition(pages, plan.ChunkSize)
	fragments := make([]string, 0, pages)

	for _, c := range chunks {
		var (
			part []string
			err  error
		)
		if plan.ConcurrentBatches {
			part, err = renderConcurrent(ctx, doc, c.Start, c.End, plan.BatchSize, fn)
		} else {
			part, err = RenderRange(ctx, doc, c.Start, c.End, plan.BatchSize, fn)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c, err)
		}
		fragments = append(fragments, part...)

		logger.Debug(fmt.Sprintf("Chunk complete: chunk=%d/%d pages=%d-%d", c.Index+1, len(chunks), c.Start, c.End), true)
		if progress != nil {
			progress(Progress{
				ProcessedPages:  len(fragments),
				TotalPages:      pages,
				ProgressPercent: float64(len(fragments)) / float64(pages) * 100,
				CurrentChunk:    c.Index + 1,
				TotalChunks:     len(chunks),
			})
		}

		if plan.ReclaimMemory && c.End < pages {
			debug.FreeOSMemory()
		}
	}
	return fragments, nil
}

// RenderRange renders pages start..end in batches of batchSize. Pages of a
// batch render concurrently; the next batch starts once the previous one has
// fully resolved. A failing page yields an empty fragment. Only render.ErrFatal
// or context cancellation abort the range.
func RenderRange(ctx context.Context, doc document.Document, start, end, batchSize int, fn render.Func) ([]string, error) {
	if end < start {
		return nil, nil
	}
	if batchSize < 1 {
		batchSize = 1
	}
	fragments := make([]string, end-start+1)
	for b := start; b <= end; b += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		be := min(b+batchSize-1, end)
		if err := renderBatch(ctx, doc, b, be, fragments[b-start:be-start+1], fn); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fragments, nil
}

// renderConcurrent starts every batch of the range at once.
func renderConcurrent(ctx context.Context, doc document.Document, start, end, batchSize int, fn render.Func) ([]string, error) {
	if batchSize < 1 {
		batchSize = 1
	}
	fragments := make([]string, end-start+1)
	g, gctx := errgroup.WithContext(ctx)
	for b := start; b <= end; b += batchSize {
		bs, be := b, min(b+batchSize-1, end)
		g.Go(func() error {
			return renderBatch(gctx, doc, bs, be, fragments[bs-start:be-start+1], fn)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fragments, nil
}

// renderBatch fills out[i] with page start+i.
func renderBatch(ctx context.Context, doc document.Document, start, end int, out []string, fn render.Func) error {
	if start == end {
		text, err := renderPage(ctx, doc, start, fn)
		out[0] = text
		return err
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for n := start; n <= end; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			text, err := renderPage(ctx, doc, n, fn)
			out[n-start] = text
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(n)
	}
	wg.Wait()
	return firstErr
}

// renderPage isolates a single page: errors and panics become empty text
// unless the renderer reports render.ErrFatal.
func renderPage(ctx context.Context, doc document.Document, n int, fn render.Func) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Debug(fmt.Sprintf("Page render panicked, substituting empty text: page=%d panic=%v", n, rec))
			text, err = "", nil
		}
	}()

	page, err := doc.Page(n)
	if err != nil {
		logger.Debug(fmt.Sprintf("Page fetch failed, substituting empty text: page=%d err=%v", n, err))
		return "", nil
	}
	text, err = fn(ctx, page)
	if err == nil {
		return text, nil
	}
	if errors.Is(err, render.ErrFatal) {
		return "", fmt.Errorf("page %d: %w", n, err)
	}
	logger.Debug(fmt.Sprintf("Page render failed, substituting empty text: page=%d err=%v", n, err))
	return "", nil
}
