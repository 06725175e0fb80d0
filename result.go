// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"github.com/sassoftware/viya-pdf-autoxtract/analyze"
	"github.com/sassoftware/viya-pdf-autoxtract/document"
	"github.com/sassoftware/viya-pdf-autoxtract/selector"
)

// Result is the outcome of one Parse call. Info and Metadata are nil when
// the document does not carry them or they cannot be read.
type Result struct {
	PageCount     int            `json:"pageCount"`
	PagesRendered int            `json:"pagesRendered"`
	Info          *document.Info `json:"documentInfo"`
	Metadata      *document.XMP  `json:"documentMetadata"`
	Text          string         `json:"text"`
	// Truncated is set when Text was cut at MaxTotalChars.
	Truncated     bool   `json:"truncated,omitempty"`
	FormatVersion string `json:"formatVersion,omitempty"`
	Meta          Meta   `json:"meta"`
}

// Meta describes how the text was produced.
type Meta struct {
	Method     selector.Method  `json:"methodUsed,omitempty"`
	Kind       selector.Kind    `json:"executorKind,omitempty"`
	Source     selector.Source  `json:"source,omitempty"`
	Config     selector.Config  `json:"config"`
	DurationMs float64          `json:"durationMs"`
	Analysis   analyze.Analysis `json:"analysis"`
}
