// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sassoftware/viya-pdf-autoxtract/document"
	"github.com/sassoftware/viya-pdf-autoxtract/fanout"
	"github.com/sassoftware/viya-pdf-autoxtract/history"
	"github.com/sassoftware/viya-pdf-autoxtract/logger"
	"github.com/sassoftware/viya-pdf-autoxtract/render"
	"github.com/sassoftware/viya-pdf-autoxtract/selector"
)

// DefaultPageTimeout bounds one render attempt of one page.
const DefaultPageTimeout = 30 * time.Second

type Config struct {
	MaxConcurrentDocs int `validate:"min=1,max=64"`
	// WorkerTimeout is the deadline of one fanout worker.
	WorkerTimeout time.Duration `validate:"required"`
	// MaxRetries is how many more times a failing page is attempted before
	// it is rendered as empty.
	MaxRetries int `validate:"min=0,max=3"`
	// PageTimeout bounds each attempt at rendering one page; 0 disables it.
	PageTimeout time.Duration `validate:"min=0"`
	// MaxTotalChars truncates the extracted text; 0 keeps all of it.
	MaxTotalChars int `validate:"min=0"`
	// PreferThreads uses goroutine workers where the table asks for
	// processes.
	PreferThreads bool
	// EnableLearning records a benchmark after every parse and lets past
	// results steer selection.
	EnableLearning bool
	// BenchmarkFile persists the benchmark log; empty keeps it in memory.
	BenchmarkFile string
	MaxBenchmarks int    `validate:"min=0"`
	Renderer      string `validate:"omitempty,renderer"`
	Opener        string `validate:"omitempty,opener"`
	// Table replaces the default decision table.
	Table *selector.Table
	// AvailableCPUs and AvailableMemory override the detected host values when set.
	AvailableCPUs   int `validate:"min=0"`
	AvailableMemory uint64
	// WorkerCommand overrides the executable started for process workers.
	WorkerCommand string
	// TempDir receives spooled documents for process workers.
	TempDir string
	DebugOn bool
	Logger  logger.LogFunc
}

func NewDefaultConfig() *Config {
	return &Config{
		MaxConcurrentDocs: 4,
		WorkerTimeout:     fanout.DefaultTimeout,
		MaxRetries:        3,
		PageTimeout:       DefaultPageTimeout,
		MaxTotalChars:     0,
		PreferThreads:     false,
		EnableLearning:    true,
		MaxBenchmarks:     history.DefaultLimit,
		Renderer:          render.Default,
		Opener:            document.DefaultOpener,
		DebugOn:           false,
	}
}

func (cfg *Config) Validate() error {
	logger.Debug("Validating Config Object")
	if err := validate().Struct(cfg); err != nil {
		return err
	}
	if cfg.Table != nil {
		if err := cfg.Table.Validate(); err != nil {
			return fmt.Errorf("decision table: %w", err)
		}
	}
	return nil
}

// validate knows the renderer and opener registries.
var validate = sync.OnceValue(newValidator)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("renderer", func(fl validator.FieldLevel) bool {
		_, err := render.Lookup(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("opener", func(fl validator.FieldLevel) bool {
		_, err := document.Lookup(fl.Field().String())
		return err == nil
	})
	return v
}
