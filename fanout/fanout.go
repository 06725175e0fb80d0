// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package fanout distributes page chunks to isolated workers, either
// goroutines or child processes, and collects their text in chunk order.
//
// Workers are spawned per chunk and never reused. Any worker failure aborts
// the whole operation; page-level failures inside a worker are tolerated by
// the executor as usual.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sassoftware/viya-pdf-autoxtract/executor"
	"github.com/sassoftware/viya-pdf-autoxtract/logger"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout is the per-chunk worker deadline.
const DefaultTimeout = 2 * time.Minute

// Task is the unit of work handed to one worker.
type Task struct {
	Chunk     executor.Chunk
	BatchSize int
	Renderer  string
	Opener    string
	// Retries and PageTimeout wrap the renderer with render.WithRetries.
	Retries     int
	PageTimeout time.Duration
}

// Pool creates workers of one kind.
type Pool interface {
	Kind() string
	// Share makes the document bytes reachable from workers.
	Share(data []byte) (Shared, error)
}

// Shared is a document made available to workers. Release is called once,
// after every worker has finished.
type Shared interface {
	Run(ctx context.Context, t Task) (string, error)
	Release() error
}

// State is the lifecycle of a worker slot. Every chunk moves from Idle, when
// a slot is assigned to it, to Dispatched and then to one terminal state.
type State int

const (
	Idle State = iota
	Dispatched
	Succeeded
	Failed
	TimedOut
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dispatched:
		return "dispatched"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed-out"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Progress is reported after every completed chunk.
type Progress struct {
	CompletedChunks int     `json:"completedChunks"`
	TotalChunks     int     `json:"totalChunks"`
	ProgressPercent float64 `json:"progressPercent"`
}

// Job describes one fanout.
type Job struct {
	Data       []byte
	Chunks     []executor.Chunk
	MaxWorkers int
	BatchSize  int
	Timeout    time.Duration
	Renderer   string
	Opener     string
	// Retries and PageTimeout are passed to every worker.
	Retries     int
	PageTimeout time.Duration
	OnProgress  func(Progress)
	// OnState observes worker transitions; it may be called concurrently.
	OnState func(c executor.Chunk, s State)
}

// Run executes job on pool and returns one text per chunk, indexed by
// Chunk.Index. On any worker failure it returns no text at all.
func Run(ctx context.Context, pool Pool, job Job) (results []string, err error) {
	if len(job.Chunks) == 0 {
		return nil, nil
	}
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	workers := min(max(job.MaxWorkers, 1), len(job.Chunks))

	shared, err := pool.Share(job.Data)
	if err != nil {
		return nil, fmt.Errorf("share document with %s workers: %w", pool.Kind(), err)
	}
	defer func() {
		if rerr := shared.Release(); rerr != nil {
			logger.Warn("releasing shared document failed", "kind", pool.Kind(), "err", rerr)
		}
	}()

	logger.Debug(fmt.Sprintf("Fanout starting: kind=%s chunks=%d workers=%d timeout=%s",
		pool.Kind(), len(job.Chunks), workers, timeout), true)

	results = make([]string, len(job.Chunks))
	var (
		mu        sync.Mutex
		completed int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, c := range job.Chunks {
		c := c
		g.Go(func() error {
			transition(job, c, Idle)
			if err := gctx.Err(); err != nil {
				transition(job, c, Failed)
				return err
			}
			text, err := dispatch(gctx, pool.Kind(), shared, job, c, timeout)
			if err != nil {
				return err
			}
			results[c.Index] = text

			mu.Lock()
			defer mu.Unlock()
			completed++
			if job.OnProgress != nil {
				job.OnProgress(Progress{
					CompletedChunks: completed,
					TotalChunks:     len(job.Chunks),
					ProgressPercent: float64(completed) / float64(len(job.Chunks)) * 100,
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("Fanout aborted: kind=%s err=%v", pool.Kind(), err))
		return nil, err
	}
	logger.Debug(fmt.Sprintf("Fanout complete: kind=%s chunks=%d", pool.Kind(), len(job.Chunks)), true)
	return results, nil
}

func dispatch(ctx context.Context, kind string, shared Shared, job Job, c executor.Chunk, timeout time.Duration) (string, error) {
	transition(job, c, Dispatched)
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	text, err := shared.Run(tctx, Task{
		Chunk:       c,
		BatchSize:   job.BatchSize,
		Renderer:    job.Renderer,
		Opener:      job.Opener,
		Retries:     job.Retries,
		PageTimeout: job.PageTimeout,
	})
	if err == nil {
		transition(job, c, Succeeded)
		return text, nil
	}

	// Cancelled because a sibling failed or the caller gave up.
	if ctx.Err() != nil {
		transition(job, c, Failed)
		return "", ctx.Err()
	}
	if errors.Is(tctx.Err(), context.DeadlineExceeded) {
		transition(job, c, TimedOut)
		return "", &TimeoutError{Chunk: c, Total: len(job.Chunks), Kind: kind, Elapsed: time.Since(start), Deadline: timeout}
	}

	transition(job, c, Failed)
	var we *WorkerError
	if errors.As(err, &we) {
		we.Chunk, we.Total, we.Kind = c, len(job.Chunks), kind
		return "", we
	}
	return "", &WorkerError{Chunk: c, Total: len(job.Chunks), Kind: kind, Err: err}
}

func transition(job Job, c executor.Chunk, s State) {
	logger.Debug(fmt.Sprintf("Worker %s: %s", s, c), true)
	if job.OnState != nil {
		job.OnState(c, s)
	}
}
