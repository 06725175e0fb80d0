// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package fanout

import (
	"context"
)

// ThreadPool runs each chunk on its own goroutine with a private copy of the
// parsed document. A goroutine cannot be killed, so on timeout its context
// is cancelled and its result abandoned.
type ThreadPool struct{}

func (ThreadPool) Kind() string { return "thread" }

func (ThreadPool) Share(data []byte) (Shared, error) {
	return &memShared{data: data}, nil
}

type memShared struct {
	data []byte
}

func (m *memShared) Run(ctx context.Context, t Task) (string, error) {
	type result struct {
		text string
		err  error
	}
	data := m.data
	done := make(chan result, 1)
	go func() {
		text, err := RenderChunk(ctx, data, t)
		done <- result{text, err}
	}()
	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (m *memShared) Release() error {
	m.data = nil
	return nil
}
