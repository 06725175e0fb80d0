// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package selector

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
)

// Tier is one row of the size-tiered decision table.
type Tier struct {
	// MaxPages is the inclusive upper bound; 0 means unbounded and is only
	// valid on the last tier.
	MaxPages int    `json:"maxPages" validate:"min=0"`
	Method   Method `json:"method" validate:"oneof=sequential batch stream aggressive workers processes"`
	// BatchSize and ChunkSize of 0 select the adaptive value.
	BatchSize int `json:"batchSize,omitempty" validate:"min=0,max=1000"`
	ChunkSize int `json:"chunkSize,omitempty" validate:"min=0"`
	// MemoryCheck switches to streaming when the page count suggests more
	// memory than the host can spare.
	MemoryCheck bool `json:"memoryCheck,omitempty"`
	// MinCores below which Fallback is used instead of Method.
	MinCores int    `json:"minCores,omitempty" validate:"min=0"`
	Fallback Method `json:"fallback,omitempty" validate:"omitempty,oneof=sequential batch stream aggressive workers processes"`
}

// Table maps page counts onto strategies. It is the artifact an offline
// trainer regenerates from benchmark history.
type Table struct {
	Tiers []Tier `json:"tiers" validate:"required,min=1,dive"`
	// MemoryPerPage is the rough resident cost of one page, in bytes.
	MemoryPerPage int64 `json:"memoryPerPage" validate:"min=1"`
	// MemoryHeadroom multiplies available memory for the MemoryCheck test.
	MemoryHeadroom float64 `json:"memoryHeadroom" validate:"gt=0"`
}

// DefaultTable returns the benchmark-derived default decision table.
func DefaultTable() Table {
	return Table{
		Tiers: []Tier{
			{MaxPages: 10, Method: Batch, BatchSize: 5},
			{MaxPages: 50, Method: Batch, BatchSize: 10},
			{MaxPages: 200, Method: Batch, BatchSize: 20},
			{MaxPages: 500, Method: Batch, BatchSize: 50},
			{MaxPages: 1000, Method: Batch, BatchSize: 50, MemoryCheck: true},
			{MaxPages: 0, Method: Processes, BatchSize: 10, ChunkSize: 500, MinCores: 4, Fallback: Stream},
		},
		MemoryPerPage:  50_000,
		MemoryHeadroom: 1.5,
	}
}

// Validate checks field constraints and tier ordering.
func (t Table) Validate() error {
	if err := validator.New().Struct(t); err != nil {
		return err
	}
	prev := 0
	for i, tier := range t.Tiers {
		last := i == len(t.Tiers)-1
		if tier.MaxPages == 0 && !last {
			return fmt.Errorf("tier %d: unbounded tier must be last", i)
		}
		if tier.MaxPages != 0 && tier.MaxPages <= prev {
			return fmt.Errorf("tier %d: maxPages %d not above previous %d", i, tier.MaxPages, prev)
		}
		if tier.MinCores > 0 && tier.Fallback == "" {
			return fmt.Errorf("tier %d: minCores requires a fallback method", i)
		}
		prev = tier.MaxPages
	}
	return nil
}

// Lookup returns the tier covering pageCount.
func (t Table) Lookup(pageCount int) (Tier, bool) {
	for _, tier := range t.Tiers {
		if tier.MaxPages == 0 || pageCount <= tier.MaxPages {
			return tier, true
		}
	}
	return Tier{}, false
}

// LoadTable decodes and validates a JSON decision table.
func LoadTable(r io.Reader) (Table, error) {
	var t Table
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&t); err != nil {
		return Table{}, fmt.Errorf("decode decision table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Table{}, fmt.Errorf("invalid decision table: %w", err)
	}
	return t, nil
}

// WriteJSON encodes t as indented JSON.
func (t Table) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}
