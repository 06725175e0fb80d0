// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	xtract "github.com/sassoftware/viya-pdf-autoxtract"
	"github.com/sassoftware/viya-pdf-autoxtract/fanout"
	"github.com/sassoftware/viya-pdf-autoxtract/history"
	"github.com/sassoftware/viya-pdf-autoxtract/internal/config"
	"github.com/sassoftware/viya-pdf-autoxtract/internal/fakedoc"
	"github.com/sassoftware/viya-pdf-autoxtract/selector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	pc := xtract.NewDefaultConfig()
	pc.Opener = fakedoc.Name
	pc.Renderer = fakedoc.Name
	pc.AvailableCPUs = 4
	pc.PreferThreads = true

	cfg := config.Load()
	cfg.MaxUploadBytes = 1 << 16
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(xtract.NewProcessor(pc), log, cfg)
}

func do(s *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(newTestServer(t), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestParse(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, http.MethodPost, "/api/parse?method=workers&chunk=2&workers=2&max=4", fakedoc.Generate(6))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res xtract.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 6, res.PageCount)
	assert.Equal(t, 4, res.PagesRendered)
	assert.Equal(t, selector.Workers, res.Meta.Method)
	assert.True(t, strings.HasPrefix(res.Text, fakedoc.PageText(1)))
	assert.Contains(t, rec.Body.String(), `"methodUsed":"workers"`)
}

func TestParse_Chars(t *testing.T) {
	rec := do(newTestServer(t), http.MethodPost, "/api/parse?chars=6", fakedoc.Generate(3))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res xtract.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "page 1", res.Text)
	assert.True(t, res.Truncated)
}

func TestParse_Errors(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name   string
		target string
		body   []byte
		status int
	}{
		{"bad integer", "/api/parse?workers=lots", fakedoc.Generate(2), http.StatusBadRequest},
		{"empty body", "/api/parse", nil, http.StatusBadRequest},
		{"unknown renderer", "/api/parse?renderer=ocr", fakedoc.Generate(2), http.StatusBadRequest},
		{"negative max", "/api/parse?max=-2", fakedoc.Generate(2), http.StatusBadRequest},
		{"unopenable", "/api/parse", fakedoc.Build("!open"), http.StatusUnprocessableEntity},
		{"too large", "/api/parse", bytes.Repeat([]byte("x"), 1<<16+1), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestStatsAndReports(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 2; i++ {
		rec := do(s, http.MethodPost, "/api/parse?method=batch", fakedoc.Generate(5))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(s, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats xtract.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.TotalParses)
	assert.Equal(t, 2, stats.MethodUsage[selector.Batch])
	assert.Equal(t, 2, stats.BenchmarksCollected)

	rec = do(s, http.MethodGet, "/api/benchmarks/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sums []history.RangeSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sums))
	require.Len(t, sums, len(history.DefaultRanges))
	assert.Equal(t, selector.Batch, sums[0].Recommended)

	rec = do(s, http.MethodGet, "/api/benchmarks/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<table>")

	rec = do(s, http.MethodGet, "/api/benchmarks/report?format=markdown", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Recommended: **batch**")
}

func TestTable(t *testing.T) {
	rec := do(newTestServer(t), http.MethodGet, "/api/table", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	table, err := selector.LoadTable(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, selector.DefaultTable(), table)
}

// This package never calls fanout.MaybeRunWorker, like any program that
// embeds the processor without the worker entry point.
func TestParse_HugeDocumentWithoutWorkerEntryPoint(t *testing.T) {
	require.False(t, fanout.WorkersEnabled())

	pc := xtract.NewDefaultConfig()
	pc.Opener = fakedoc.Name
	pc.Renderer = fakedoc.Name
	pc.EnableLearning = false
	pc.AvailableCPUs = 8
	pc.AvailableMemory = 8 << 30
	pc.PreferThreads = false
	pc.TempDir = t.TempDir()

	cfg := config.Load()
	cfg.MaxUploadBytes = 1 << 20
	s := NewServer(xtract.NewProcessor(pc), slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)

	data := fakedoc.Generate(2000)
	rec := do(s, http.MethodPost, "/api/parse", data)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res xtract.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, selector.Workers, res.Meta.Method)
	assert.Equal(t, selector.ThreadPool, res.Meta.Kind)

	var want bytes.Buffer
	for i := 1; i <= 2000; i++ {
		if i > 1 {
			want.WriteString("\n\n")
		}
		want.WriteString(fakedoc.PageText(i))
	}
	assert.Equal(t, want.String(), res.Text)
}
