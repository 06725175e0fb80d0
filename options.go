// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"github.com/sassoftware/viya-pdf-autoxtract/executor"
	"github.com/sassoftware/viya-pdf-autoxtract/fanout"
	"github.com/sassoftware/viya-pdf-autoxtract/selector"
)

// Options tune a single Parse call. Zero values defer to the selected
// strategy.
type Options struct {
	// MaxPages limits rendering to the first pages; 0 renders all.
	MaxPages int `validate:"min=0"`
	// ForceMethod bypasses selection. Unknown names resolve to batch.
	ForceMethod string
	BatchSize   int `validate:"min=0,max=1000"`
	ChunkSize   int `validate:"min=0"`
	MaxWorkers  int `validate:"min=0,max=256"`
	// Renderer names a registered render function.
	Renderer string `validate:"omitempty,renderer"`
	// MaxTotalChars overrides Config.MaxTotalChars when positive.
	MaxTotalChars int `validate:"min=0"`

	OnProgress       executor.ProgressFunc
	OnFanoutProgress func(fanout.Progress)
}

func (o *Options) Validate() error {
	return validate().Struct(o)
}

// overrides is the part of o that wins over the selected config.
func (o *Options) overrides() selector.Config {
	return selector.Config{
		BatchSize:  o.BatchSize,
		ChunkSize:  o.ChunkSize,
		MaxWorkers: o.MaxWorkers,
	}
}
