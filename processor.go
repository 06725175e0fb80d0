// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package xtract extracts text from paginated documents and picks, per
// document, the parsing strategy expected to finish fastest on this host.
package xtract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
	"unicode/utf8"

	"github.com/sassoftware/viya-pdf-autoxtract/analyze"
	"github.com/sassoftware/viya-pdf-autoxtract/document"
	"github.com/sassoftware/viya-pdf-autoxtract/executor"
	"github.com/sassoftware/viya-pdf-autoxtract/fanout"
	"github.com/sassoftware/viya-pdf-autoxtract/history"
	"github.com/sassoftware/viya-pdf-autoxtract/logger"
	"github.com/sassoftware/viya-pdf-autoxtract/render"
	"github.com/sassoftware/viya-pdf-autoxtract/selector"
	"golang.org/x/sync/semaphore"
)

// ErrNoData is returned when Parse receives no bytes.
var ErrNoData = errors.New("no document data")

// Processor defines the contract for adaptive text extraction.
type Processor interface {
	Parse(ctx context.Context, data []byte, opts Options) (*Result, error)
	ParseFile(ctx context.Context, path string, opts Options) (*Result, error)
	Stats() Stats
	Benchmarks() history.Records
	Table() selector.Table
}

var _ Processor = (*processor)(nil)

// processor analyses each document, selects a strategy and drives it.
type processor struct {
	cfg      *Config
	sem      *semaphore.Weighted
	selector *selector.Selector
	opener   document.Opener
	history  *history.Store
	stats    *statsRecorder
}

// NewProcessor validates the config and creates a new processor. The
// benchmark log is loaded when learning is enabled; a log that cannot be
// read is replaced by an empty one.
func NewProcessor(cfg *Config) *processor {
	//Validate the config object
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	//Set the logger function
	switch {
	case cfg.Logger != nil:
		logger.SetLogger(cfg.Logger)
	case cfg.DebugOn:
		logger.SetLogger(logger.FromSlog(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	}

	table := selector.DefaultTable()
	if cfg.Table != nil {
		table = *cfg.Table
	}
	opener, err := document.Lookup(cfg.Opener)
	if err != nil {
		panic(err)
	}

	var store *history.Store
	if cfg.EnableLearning {
		if store, err = history.Open(cfg.BenchmarkFile, cfg.MaxBenchmarks); err != nil {
			logger.Warn(fmt.Sprintf("Failed to load benchmarks, starting empty: %v", err))
			store, _ = history.Open("", cfg.MaxBenchmarks)
		}
	}

	logger.Debug(fmt.Sprintf("Processor initialized: max_concurrent_docs=%d prefer_threads=%v learning=%v renderer=%s opener=%s",
		cfg.MaxConcurrentDocs, cfg.PreferThreads, cfg.EnableLearning, cfg.Renderer, cfg.Opener), true)

	return &processor{
		cfg:      cfg,
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrentDocs)),
		selector: selector.New(table, cfg.PreferThreads),
		opener:   opener,
		history:  store,
		stats:    newStatsRecorder(),
	}
}

// Parse extracts the text of data with the strategy the selector picks for
// it, or the one forced by opts.
func (p *processor) Parse(ctx context.Context, data []byte, opts Options) (*Result, error) {
	if len(data) == 0 {
		return nil, ErrNoData
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	rendererName := opts.Renderer
	if rendererName == "" {
		rendererName = p.cfg.Renderer
	}
	fn, err := render.Lookup(rendererName)
	if err != nil {
		return nil, err
	}
	fn = render.WithRetries(fn, p.cfg.MaxRetries, p.cfg.PageTimeout)

	if err := p.acquireSlot(ctx); err != nil {
		logger.Debug(fmt.Sprintf("Failed to acquire slot: err=%v", err), true)
		return nil, err
	}
	defer p.sem.Release(1)

	start := time.Now()
	doc, err := p.opener(data)
	if err != nil {
		p.stats.failure()
		logger.Error(fmt.Sprintf("Failed to open document: err=%v", err))
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer doc.Close()
	a := analyze.Describe(int64(len(data)), doc.NumPage(), p.host())

	res := &Result{
		PageCount:     doc.NumPage(),
		FormatVersion: document.HeaderVersion(data),
	}
	if md, err := doc.Metadata(); err != nil {
		logger.Debug(fmt.Sprintf("Metadata unavailable: err=%v", err), true)
	} else if md != nil {
		res.Info, res.Metadata = md.Info, md.XMP
	}

	if res.PageCount == 0 {
		logger.Debug("No pages found in document", true)
		res.Meta = Meta{Analysis: a, DurationMs: msSince(start)}
		return res, nil
	}

	pages := res.PageCount
	if opts.MaxPages > 0 && opts.MaxPages < pages {
		pages = opts.MaxPages
	}

	var past selector.Precedent
	if p.history != nil {
		past = p.history
	}
	d := p.selector.Select(a, opts.ForceMethod, past)
	d.Config = d.Config.Merge(opts.overrides()).For(d.Name)
	d = p.runnable(d)
	logger.Info(fmt.Sprintf("Selected method: %s", d))

	text, err := p.run(ctx, doc, data, pages, d, fn, rendererName, opts)
	elapsed := time.Since(start)
	p.record(a, d, elapsed, err == nil)
	if err != nil {
		p.stats.failure()
		logger.Error(fmt.Sprintf("Parse failed: method=%s after=%s err=%v", d.Name, elapsed, err))
		return nil, fmt.Errorf("%s: %w", d.Name, err)
	}

	ms := float64(elapsed.Microseconds()) / 1000
	p.stats.success(d.Name, ms)
	limit := p.cfg.MaxTotalChars
	if opts.MaxTotalChars > 0 {
		limit = opts.MaxTotalChars
	}
	res.Text, res.Truncated = truncate(text, limit)
	if res.Truncated {
		logger.Debug(fmt.Sprintf("Truncation reached: limit=%d chars=%d", limit, len(text)), true)
	}
	res.PagesRendered = pages
	res.Meta = Meta{
		Method:     d.Name,
		Kind:       d.Kind,
		Source:     d.Source,
		Config:     d.Config,
		DurationMs: ms,
		Analysis:   a,
	}
	logger.Debug(fmt.Sprintf("Parse completed: method=%s pages=%d duration_ms=%.2f chars=%d", d.Name, pages, ms, len(text)), true)
	return res, nil
}

// ParseFile reads path and parses its contents.
func (p *processor) ParseFile(ctx context.Context, path string, opts Options) (*Result, error) {
	logger.Debug(fmt.Sprintf("Reading document: path=%s", path), true)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.Parse(ctx, data, opts)
}

func (p *processor) run(ctx context.Context, doc document.Document, data []byte, pages int, d selector.Descriptor, fn render.Func, rendererName string, opts Options) (string, error) {
	c := d.Config
	if d.Name.IsFanout() {
		pool := p.pool(d.Kind)
		results, err := fanout.Run(ctx, pool, fanout.Job{
			Data:        data,
			Chunks:      executor.Partition(pages, c.ChunkSize),
			MaxWorkers:  c.MaxWorkers,
			BatchSize:   c.BatchSize,
			Timeout:     p.cfg.WorkerTimeout,
			Renderer:    rendererName,
			Opener:      p.cfg.Opener,
			Retries:     p.cfg.MaxRetries,
			PageTimeout: p.cfg.PageTimeout,
			OnProgress:  opts.OnFanoutProgress,
		})
		if err != nil {
			return "", err
		}
		return executor.JoinPages(results), nil
	}

	var plan executor.Plan
	switch d.Name {
	case selector.Sequential:
		plan = executor.SequentialPlan()
	case selector.Stream:
		plan = executor.StreamingPlan(c.ChunkSize, c.BatchSize)
	case selector.Aggressive:
		plan = executor.AggressivePlan(c.ChunkSize, c.BatchSize)
	default:
		plan = executor.BatchedPlan(c.BatchSize)
	}
	fragments, err := executor.Run(ctx, doc, pages, plan, fn, opts.OnProgress)
	if err != nil {
		return "", err
	}
	return executor.JoinPages(fragments), nil
}

// runnable downgrades processes to goroutine workers when no child could
// serve the request: the binary never called fanout.MaybeRunWorker and no
// WorkerCommand was configured.
func (p *processor) runnable(d selector.Descriptor) selector.Descriptor {
	if d.Kind != selector.ProcessPool || p.cfg.WorkerCommand != "" || fanout.WorkersEnabled() {
		return d
	}
	logger.Warn("process workers unavailable, fanout.MaybeRunWorker was not called; using goroutine workers")
	d.Name, d.Kind = selector.Workers, selector.ThreadPool
	return d
}

func (p *processor) pool(kind selector.Kind) fanout.Pool {
	if kind == selector.ThreadPool {
		return fanout.ThreadPool{}
	}
	return &fanout.ProcessPool{Command: p.cfg.WorkerCommand, TempDir: p.cfg.TempDir}
}

func (p *processor) host() analyze.Host {
	h := analyze.CurrentHost()
	if p.cfg.AvailableCPUs > 0 {
		h.CPUCores = p.cfg.AvailableCPUs
	}
	if p.cfg.AvailableMemory > 0 {
		h.AvailableMemory = p.cfg.AvailableMemory
	}
	return h
}

// record appends a benchmark; persistence problems never fail a parse.
func (p *processor) record(a analyze.Analysis, d selector.Descriptor, elapsed time.Duration, success bool) {
	if p.history == nil {
		return
	}
	if err := p.history.Append(history.NewRecord(a, d, elapsed, success)); err != nil {
		logger.Warn(fmt.Sprintf("Failed to save benchmark: err=%v", err))
	}
}

// Stats reports parse counts and per-method average durations.
func (p *processor) Stats() Stats {
	s := p.stats.snapshot()
	if p.history != nil {
		s.BenchmarksCollected = p.history.Len()
	}
	return s
}

// Benchmarks returns the retained benchmark records, oldest first.
func (p *processor) Benchmarks() history.Records {
	if p.history == nil {
		return nil
	}
	return p.history.Records()
}

// Table returns the decision table in use.
func (p *processor) Table() selector.Table {
	return p.selector.Table
}

func (p *processor) acquireSlot(ctx context.Context) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire slot: %w", err)
	}
	logger.Debug("Slot acquired successfully", true)
	return nil
}

// truncate cuts text to at most limit bytes without splitting a rune.
func truncate(text string, limit int) (string, bool) {
	if limit <= 0 || len(text) <= limit {
		return text, false
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit], true
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
