// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package fanout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/sassoftware/viya-pdf-autoxtract/logger"
)

const stderrLimit = 4096

// ProcessPool runs each chunk in a child process. The child is the same
// binary re-executed with WorkerEnv set, so main must call MaybeRunWorker.
//
// The document is spooled to a temporary file that every child reads. When
// the file cannot be written the bytes travel inline in the request.
type ProcessPool struct {
	// Command defaults to the running executable.
	Command string
	Args    []string
	Env     []string
	// TempDir defaults to os.TempDir.
	TempDir string
}

func (p *ProcessPool) Kind() string { return "process" }

func (p *ProcessPool) Share(data []byte) (Shared, error) {
	exe := p.Command
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			return nil, fmt.Errorf("locate worker executable: %w", err)
		}
	}
	s := &spool{pool: p, exe: exe}
	path, err := writeTemp(p.TempDir, data)
	if err != nil {
		logger.Warn(fmt.Sprintf("Spooling document failed, sending it inline: %v", err))
		s.data = data
	} else {
		s.path = path
		logger.Debug(fmt.Sprintf("Document spooled to %s (%d bytes)", path, len(data)), true)
	}
	return s, nil
}

func writeTemp(dir string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, "autoxtract-*.pdf")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

type spool struct {
	pool *ProcessPool
	exe  string
	path string
	data []byte
	once sync.Once
}

// Path is the spooled temporary file, empty when inline.
func (s *spool) Path() string { return s.path }

func (s *spool) Run(ctx context.Context, t Task) (string, error) {
	req, err := json.Marshal(Request{
		Path:        s.path,
		Data:        s.data,
		StartPage:   t.Chunk.Start,
		EndPage:     t.Chunk.End,
		BatchSize:   t.BatchSize,
		Renderer:    t.Renderer,
		Opener:      t.Opener,
		Retries:     t.Retries,
		PageTimeout: t.PageTimeout,
	})
	if err != nil {
		return "", err
	}

	var stdout bytes.Buffer
	stderr := &limitedBuffer{max: stderrLimit}
	cmd := exec.CommandContext(ctx, s.exe, s.pool.Args...)
	cmd.Env = append(append(os.Environ(), WorkerEnv+"=1"), s.pool.Env...)
	cmd.Stdin = bytes.NewReader(req)
	cmd.Stdout = &stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = time.Second

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	var resp Response
	if derr := json.Unmarshal(stdout.Bytes(), &resp); derr == nil {
		if resp.Success {
			return resp.Text, nil
		}
		if resp.Error != "" {
			return "", errors.New(resp.Error)
		}
	}

	// Only an abnormal exit suggests the child ran out of memory. A clean
	// exit without a response means the binary never served the request.
	we := &WorkerError{Err: runErr}
	var ee *exec.ExitError
	if errors.As(runErr, &ee) {
		we.ExitCode = ee.ExitCode()
		we.Err = errors.New(ee.ProcessState.String())
		we.Hint = MemoryHint
	}
	if we.Err == nil {
		we.Err = errors.New("worker exited without a response; does main call fanout.MaybeRunWorker?")
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		we.Err = fmt.Errorf("%w: %s", we.Err, msg)
	}
	return "", we
}

func (s *spool) Release() error {
	var err error
	s.once.Do(func() {
		s.data = nil
		if s.path != "" {
			if rerr := os.Remove(s.path); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
				err = rerr
				return
			}
			logger.Debug(fmt.Sprintf("Spooled document removed: %s", s.path), true)
		}
	})
	return err
}

type limitedBuffer struct {
	buf bytes.Buffer
	max int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.max - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string { return b.buf.String() }
