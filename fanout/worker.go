// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package fanout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/sassoftware/viya-pdf-autoxtract/document"
	"github.com/sassoftware/viya-pdf-autoxtract/executor"
	"github.com/sassoftware/viya-pdf-autoxtract/render"
)

// WorkerEnv marks a child process started by ProcessPool.
const WorkerEnv = "AUTOXTRACT_WORKER"

// Request is the message a process worker reads from stdin. Exactly one of
// Path and Data is set.
type Request struct {
	Path      string `json:"pdfFilePath,omitempty"`
	Data      []byte `json:"dataBuffer,omitempty"`
	StartPage int    `json:"startPage"`
	EndPage   int    `json:"endPage"`
	BatchSize int    `json:"batchSize"`
	Renderer  string `json:"renderer,omitempty"`
	Opener    string `json:"opener,omitempty"`
	// Retries and PageTimeout configure per-page retry inside the worker.
	Retries     int           `json:"retries,omitempty"`
	PageTimeout time.Duration `json:"pageTimeout,omitempty"`
}

// Response is the message a process worker writes to stdout.
type Response struct {
	Success        bool   `json:"success"`
	Text           string `json:"text,omitempty"`
	PagesProcessed int    `json:"pagesProcessed,omitempty"`
	Error          string `json:"error,omitempty"`
}

var hooked atomic.Bool

// WorkersEnabled reports whether MaybeRunWorker has been called in this
// process. Without that call a re-executed binary never serves requests, so
// ProcessPool with the default Command cannot work.
func WorkersEnabled() bool {
	return hooked.Load()
}

// IsWorkerProcess reports whether this process was started as a worker.
func IsWorkerProcess() bool {
	return os.Getenv(WorkerEnv) == "1"
}

// MaybeRunWorker serves one request and exits when the process is a worker.
// Binaries that use ProcessPool call it first thing in main.
func MaybeRunWorker() {
	hooked.Store(true)
	if !IsWorkerProcess() {
		return
	}
	code := 0
	if err := ServeWorker(context.Background(), os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		code = 1
	}
	os.Exit(code)
}

// ServeWorker handles one Request from r and writes the Response to w. The
// returned error mirrors an unsuccessful response.
func ServeWorker(ctx context.Context, r io.Reader, w io.Writer) error {
	var req Request
	resp := Response{}
	err := json.NewDecoder(r).Decode(&req)
	if err == nil {
		resp.Text, err = serve(ctx, req)
	}
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.Success = true
		resp.PagesProcessed = req.EndPage - req.StartPage + 1
	}
	if werr := json.NewEncoder(w).Encode(resp); werr != nil && err == nil {
		err = werr
	}
	return err
}

func serve(ctx context.Context, req Request) (string, error) {
	data := req.Data
	if req.Path != "" {
		var err error
		if data, err = os.ReadFile(req.Path); err != nil {
			return "", fmt.Errorf("read shared document: %w", err)
		}
	}
	return RenderChunk(ctx, data, Task{
		Chunk:       executor.Chunk{Start: req.StartPage, End: req.EndPage},
		BatchSize:   req.BatchSize,
		Renderer:    req.Renderer,
		Opener:      req.Opener,
		Retries:     req.Retries,
		PageTimeout: req.PageTimeout,
	})
}

// RenderChunk opens its own copy of the document and renders one chunk. It
// is the body of every worker, thread or process.
func RenderChunk(ctx context.Context, data []byte, t Task) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panic: %v", r)
		}
	}()

	fn, err := render.Lookup(t.Renderer)
	if err != nil {
		return "", err
	}
	fn = render.WithRetries(fn, t.Retries, t.PageTimeout)
	doc, err := document.Open(t.Opener, data)
	if err != nil {
		return "", fmt.Errorf("open document: %w", err)
	}
	defer doc.Close()

	if t.Chunk.Start < 1 || t.Chunk.End > doc.NumPage() || t.Chunk.Start > t.Chunk.End {
		return "", fmt.Errorf("pages %d-%d out of range 1-%d", t.Chunk.Start, t.Chunk.End, doc.NumPage())
	}
	fragments, err := executor.RenderRange(ctx, doc, t.Chunk.Start, t.Chunk.End, t.BatchSize, fn)
	if err != nil {
		return "", err
	}
	return executor.JoinPages(fragments), nil
}
