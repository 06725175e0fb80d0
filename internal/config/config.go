// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads the autoxtract binary's settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	xtract "github.com/sassoftware/viya-pdf-autoxtract"
	"github.com/sassoftware/viya-pdf-autoxtract/selector"
)

type Config struct {
	Port string

	// Processor
	MaxConcurrentDocs int
	WorkerTimeout     time.Duration
	MaxRetries        int
	PageTimeout       time.Duration
	MaxTotalChars     int
	PreferThreads     bool
	EnableLearning    bool
	BenchmarkFile     string
	MaxBenchmarks     int
	Renderer          string
	TableFile         string
	TempDir           string
	Debug             bool

	// Upload limits
	MaxUploadBytes int64
}

func Load() Config {
	defaults := xtract.NewDefaultConfig()
	cfg := Config{
		Port: envOr("PORT", "8091"),

		MaxConcurrentDocs: envInt("AUTOXTRACT_MAX_CONCURRENT_DOCS", defaults.MaxConcurrentDocs),
		WorkerTimeout:     envDuration("AUTOXTRACT_WORKER_TIMEOUT", defaults.WorkerTimeout),
		MaxRetries:        envInt("AUTOXTRACT_MAX_RETRIES", defaults.MaxRetries),
		PageTimeout:       envDuration("AUTOXTRACT_PAGE_TIMEOUT", defaults.PageTimeout),
		MaxTotalChars:     envInt("AUTOXTRACT_MAX_TOTAL_CHARS", defaults.MaxTotalChars),
		PreferThreads:     envBool("AUTOXTRACT_PREFER_THREADS", defaults.PreferThreads),
		EnableLearning:    envBool("AUTOXTRACT_LEARNING", defaults.EnableLearning),
		BenchmarkFile:     envOr("AUTOXTRACT_BENCHMARK_FILE", "autoxtract-benchmarks.jsonl"),
		MaxBenchmarks:     envInt("AUTOXTRACT_MAX_BENCHMARKS", defaults.MaxBenchmarks),
		Renderer:          envOr("AUTOXTRACT_RENDERER", defaults.Renderer),
		TableFile:         os.Getenv("AUTOXTRACT_TABLE_FILE"),
		TempDir:           os.Getenv("AUTOXTRACT_TEMP_DIR"),
		Debug:             envBool("AUTOXTRACT_DEBUG", false),

		MaxUploadBytes: envInt64("AUTOXTRACT_MAX_UPLOAD_BYTES", 104857600), // 100MB
	}

	if cfg.MaxConcurrentDocs <= 0 {
		cfg.MaxConcurrentDocs = defaults.MaxConcurrentDocs
	}
	if cfg.WorkerTimeout <= 0 {
		cfg.WorkerTimeout = defaults.WorkerTimeout
	}
	if cfg.MaxBenchmarks <= 0 {
		cfg.MaxBenchmarks = defaults.MaxBenchmarks
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 104857600
	}

	return cfg
}

// Processor converts c into a validated processor config, loading the
// decision table file when one is set.
func (c Config) Processor() (*xtract.Config, error) {
	pc := xtract.NewDefaultConfig()
	pc.MaxConcurrentDocs = c.MaxConcurrentDocs
	pc.WorkerTimeout = c.WorkerTimeout
	pc.MaxRetries = c.MaxRetries
	pc.PageTimeout = c.PageTimeout
	pc.MaxTotalChars = c.MaxTotalChars
	pc.PreferThreads = c.PreferThreads
	pc.EnableLearning = c.EnableLearning
	pc.BenchmarkFile = c.BenchmarkFile
	pc.MaxBenchmarks = c.MaxBenchmarks
	pc.Renderer = c.Renderer
	pc.TempDir = c.TempDir
	pc.DebugOn = c.Debug

	if c.TableFile != "" {
		f, err := os.Open(c.TableFile)
		if err != nil {
			return nil, fmt.Errorf("decision table: %w", err)
		}
		defer f.Close()
		table, err := selector.LoadTable(f)
		if err != nil {
			return nil, fmt.Errorf("decision table %s: %w", c.TableFile, err)
		}
		pc.Table = &table
	}

	if err := pc.Validate(); err != nil {
		return nil, err
	}
	return pc, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
