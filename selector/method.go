// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package selector

import (
	"fmt"
	"strings"
)

// Method names a parsing strategy.
type Method string

const (
	Sequential Method = "sequential"
	Batch      Method = "batch"
	Stream     Method = "stream"
	Aggressive Method = "aggressive"
	Workers    Method = "workers"
	Processes  Method = "processes"
)

// Methods lists every strategy in a stable order.
var Methods = []Method{Sequential, Batch, Stream, Aggressive, Workers, Processes}

// Kind is the execution substrate a method runs on.
type Kind string

const (
	InProcess   Kind = "in-process"
	ThreadPool  Kind = "thread-pool"
	ProcessPool Kind = "process-pool"
)

// Kind reports where m executes.
func (m Method) Kind() Kind {
	switch m {
	case Workers:
		return ThreadPool
	case Processes:
		return ProcessPool
	default:
		return InProcess
	}
}

// IsFanout reports whether m distributes chunks to isolated workers.
func (m Method) IsFanout() bool {
	return m.Kind() != InProcess
}

// ParseMethod resolves a user supplied method name.
func ParseMethod(name string) (Method, bool) {
	m := Method(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Methods {
		if m == known {
			return m, true
		}
	}
	return "", false
}

// Source records which rule produced a Descriptor.
type Source string

const (
	FromOverride Source = "override"
	FromHistory  Source = "history"
	FromTable    Source = "table"
)

// Config is the tuned configuration of a strategy. Zero fields do not apply
// to the method.
type Config struct {
	BatchSize  int `json:"batchSize,omitempty"`
	ChunkSize  int `json:"chunkSize,omitempty"`
	MaxWorkers int `json:"maxWorkers,omitempty"`
}

// Merge returns c with every non-zero field of o applied on top.
func (c Config) Merge(o Config) Config {
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.ChunkSize > 0 {
		c.ChunkSize = o.ChunkSize
	}
	if o.MaxWorkers > 0 {
		c.MaxWorkers = o.MaxWorkers
	}
	return c
}

// For drops the fields m does not read, so a descriptor never reports
// settings that had no effect. Sequential always renders one page at a time.
func (c Config) For(m Method) Config {
	switch m {
	case Sequential:
		return Config{BatchSize: 1}
	case Batch:
		return Config{BatchSize: c.BatchSize}
	case Stream, Aggressive:
		return Config{BatchSize: c.BatchSize, ChunkSize: c.ChunkSize}
	default:
		return c
	}
}

// Descriptor is the outcome of a selection.
type Descriptor struct {
	Name   Method `json:"name"`
	Kind   Kind   `json:"executorKind"`
	Config Config `json:"config"`
	Source Source `json:"source"`
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s(%s) batch=%d chunk=%d workers=%d via %s",
		d.Name, d.Kind, d.Config.BatchSize, d.Config.ChunkSize, d.Config.MaxWorkers, d.Source)
}
