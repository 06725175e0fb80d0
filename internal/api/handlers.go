// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
	xtract "github.com/sassoftware/viya-pdf-autoxtract"
	"github.com/sassoftware/viya-pdf-autoxtract/fanout"
	"github.com/sassoftware/viya-pdf-autoxtract/history"
	"github.com/sassoftware/viya-pdf-autoxtract/report"
)

// handleParse takes the raw document as the request body. Query parameters
// mirror xtract.Options: max, method, batch, chunk, workers, renderer.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	opts, err := parseOptions(r.URL.Query())
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read body", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("document exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	res, err := s.proc.Parse(r.Context(), data, opts)
	if err != nil {
		s.log.Warn("parse failed", "error", err, "bytes", len(data))
		jsonError(w, err.Error(), parseStatus(err))
		return
	}
	writeJSON(w, res)
}

func parseStatus(err error) int {
	var ve validator.ValidationErrors
	var te *fanout.TimeoutError
	switch {
	case errors.Is(err, xtract.ErrNoData), errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &te):
		return http.StatusGatewayTimeout
	default:
		return http.StatusUnprocessableEntity
	}
}

func parseOptions(q url.Values) (xtract.Options, error) {
	opts := xtract.Options{
		ForceMethod: q.Get("method"),
		Renderer:    q.Get("renderer"),
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"max", &opts.MaxPages},
		{"batch", &opts.BatchSize},
		{"chunk", &opts.ChunkSize},
		{"workers", &opts.MaxWorkers},
		{"chars", &opts.MaxTotalChars},
	}
	for _, p := range ints {
		v := q.Get(p.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, fmt.Errorf("invalid %s: %q", p.key, v)
		}
		*p.dst = n
	}
	return opts, nil
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.proc.Stats())
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.proc.Table().WriteJSON(w); err != nil {
		s.log.Error("write table", "error", err)
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, history.Summarize(s.proc.Benchmarks(), history.DefaultRanges))
}

// handleReport serves HTML, or Markdown with format=markdown.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	records := s.proc.Benchmarks()
	summaries := history.Summarize(records, history.DefaultRanges)

	var err error
	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		err = report.Markdown(w, summaries, len(records))
	} else {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = report.HTML(w, summaries, len(records))
	}
	if err != nil {
		s.log.Error("write report", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
