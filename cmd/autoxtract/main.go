// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Command autoxtract parses documents with an automatically selected
// strategy, reports benchmark history and serves the HTTP API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	xtract "github.com/sassoftware/viya-pdf-autoxtract"
	"github.com/sassoftware/viya-pdf-autoxtract/fanout"
	"github.com/sassoftware/viya-pdf-autoxtract/history"
	"github.com/sassoftware/viya-pdf-autoxtract/internal/api"
	"github.com/sassoftware/viya-pdf-autoxtract/internal/config"
	"github.com/sassoftware/viya-pdf-autoxtract/logger"
	"github.com/sassoftware/viya-pdf-autoxtract/report"
	"github.com/sassoftware/viya-pdf-autoxtract/tracer"
)

const usage = `usage: autoxtract <command> [flags]

commands:
  parse [flags] file   extract text from a document
  report [-html]       summarise benchmark history
  table                print the decision table as JSON
  serve                start the HTTP API
`

func main() {
	// Process-pool workers re-execute this binary.
	fanout.MaybeRunWorker()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	var err error
	switch os.Args[1] {
	case "parse":
		err = runParse(cfg, os.Args[2:], os.Stdout)
	case "report":
		err = runReport(cfg, os.Args[2:], os.Stdout)
	case "table":
		err = runTable(cfg, os.Stdout)
	case "serve":
		err = runServe(cfg, log)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Error("autoxtract failed", "command", os.Args[1], "error", err)
		if cfg.Debug {
			tracer.Flush()
		}
		os.Exit(1)
	}
}

func newProcessor(cfg config.Config, log *slog.Logger) (xtract.Processor, error) {
	pc, err := cfg.Processor()
	if err != nil {
		return nil, err
	}
	if log != nil {
		pc.Logger = logger.FromSlog(log)
	}
	return xtract.NewProcessor(pc), nil
}

func runParse(cfg config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	var opts xtract.Options
	fs.IntVar(&opts.MaxPages, "max", 0, "render at most this many pages (0 = all)")
	fs.StringVar(&opts.ForceMethod, "method", "", "force a strategy: sequential, batch, stream, aggressive, workers, processes")
	fs.IntVar(&opts.BatchSize, "batch", 0, "pages rendered concurrently per batch")
	fs.IntVar(&opts.ChunkSize, "chunk", 0, "pages per chunk")
	fs.IntVar(&opts.MaxWorkers, "workers", 0, "maximum concurrent fanout workers")
	fs.StringVar(&opts.Renderer, "renderer", "", "render function: lines, plain, normalized")
	fs.IntVar(&opts.MaxTotalChars, "chars", 0, "truncate the text to this many bytes (0 = no limit)")
	asJSON := fs.Bool("json", false, "print the full result as JSON")
	timeout := fs.Duration("timeout", 0, "overall deadline (0 = none)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("parse: exactly one file is required")
	}

	var log *slog.Logger
	if cfg.Debug {
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	proc, err := newProcessor(cfg, log)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}
	res, err := proc.ParseFile(ctx, fs.Arg(0), opts)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err = fmt.Fprintln(out, res.Text)
	return err
}

func runReport(cfg config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	asHTML := fs.Bool("html", false, "render HTML instead of Markdown")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := history.Open(cfg.BenchmarkFile, cfg.MaxBenchmarks)
	if err != nil {
		return err
	}
	records := store.Records()
	summaries := history.Summarize(records, history.DefaultRanges)
	if *asHTML {
		return report.HTML(out, summaries, len(records))
	}
	return report.Markdown(out, summaries, len(records))
}

func runTable(cfg config.Config, out io.Writer) error {
	proc, err := newProcessor(cfg, nil)
	if err != nil {
		return err
	}
	return proc.Table().WriteJSON(out)
}

func runServe(cfg config.Config, log *slog.Logger) error {
	proc, err := newProcessor(cfg, log)
	if err != nil {
		return err
	}
	srv := api.NewServer(proc, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.WorkerTimeout + time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting autoxtract", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
