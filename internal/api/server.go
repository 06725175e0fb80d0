// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package api exposes a Processor over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	xtract "github.com/sassoftware/viya-pdf-autoxtract"
	"github.com/sassoftware/viya-pdf-autoxtract/internal/config"
)

// Server is the HTTP API server for autoxtract.
type Server struct {
	router chi.Router
	proc   xtract.Processor
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(proc xtract.Processor, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		proc: proc,
		log:  log,
		cfg:  cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/parse", s.handleParse)
		r.Get("/stats", s.handleStats)
		r.Get("/table", s.handleTable)
		r.Get("/benchmarks/summary", s.handleSummary)
		r.Get("/benchmarks/report", s.handleReport)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
