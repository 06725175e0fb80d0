// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package fanout

import (
	"context"
	"fmt"
	"time"

	"github.com/sassoftware/viya-pdf-autoxtract/executor"
)

// MemoryHint accompanies abnormal worker exits.
const MemoryHint = "the worker may have run out of memory; try reducing MaxWorkers"

// WorkerError reports an unrecoverable failure of one isolated worker. It
// aborts the whole fanout.
type WorkerError struct {
	Chunk executor.Chunk
	Total int
	Kind  string
	// ExitCode is the child's exit status, zero for thread workers.
	ExitCode int
	Err      error
	Hint     string
}

func (e *WorkerError) Error() string {
	msg := fmt.Sprintf("%s worker failed on chunk %d/%d (pages %d-%d)", e.Kind, e.Chunk.Index+1, e.Total, e.Chunk.Start, e.Chunk.End)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *WorkerError) Unwrap() error { return e.Err }

// TimeoutError reports a worker that exceeded its per-chunk deadline.
type TimeoutError struct {
	Chunk    executor.Chunk
	Total    int
	Kind     string
	Elapsed  time.Duration
	Deadline time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s worker timed out on chunk %d/%d (pages %d-%d) after %s, deadline %s",
		e.Kind, e.Chunk.Index+1, e.Total, e.Chunk.Start, e.Chunk.End,
		e.Elapsed.Round(time.Millisecond), e.Deadline)
}

func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }
