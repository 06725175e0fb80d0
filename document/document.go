// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package document defines the contract consumed from the document-parsing
// library: open raw bytes into a paginated handle, fetch pages, read metadata.
package document

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownOpener is returned when an opener name is not registered.
var ErrUnknownOpener = errors.New("unknown document opener")

// TextItem is one run of text positioned on a page.
type TextItem struct {
	Text string
	Y    float64
}

// Page is a single page of a document. Pages are consumed once and must not be
// retained after rendering.
type Page interface {
	Number() int
	TextItems() ([]TextItem, error)
}

// PlainTexter is implemented by pages whose backend has its own text layout.
type PlainTexter interface {
	PlainText() (string, error)
}

// Document is an opened paginated document. Close must be called exactly once.
type Document interface {
	NumPage() int
	Page(n int) (Page, error)
	Metadata() (*Metadata, error)
	Close() error
}

// Opener turns raw bytes into a Document.
type Opener func(data []byte) (Document, error)

// DefaultOpener is the name of the PDF backend.
const DefaultOpener = "pdf"

var (
	openersMu sync.RWMutex
	openers   = map[string]Opener{}
)

// Register makes an opener available by name. Worker processes resolve openers
// through this registry, so registration must happen in init.
func Register(name string, o Opener) {
	if o == nil {
		panic("document: Register opener is nil")
	}
	openersMu.Lock()
	defer openersMu.Unlock()
	openers[name] = o
}

// Lookup returns the opener registered under name.
func Lookup(name string) (Opener, error) {
	if name == "" {
		name = DefaultOpener
	}
	openersMu.RLock()
	defer openersMu.RUnlock()
	o, ok := openers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOpener, name)
	}
	return o, nil
}

// Openers lists registered opener names.
func Openers() []string {
	openersMu.RLock()
	defer openersMu.RUnlock()
	names := make([]string, 0, len(openers))
	for n := range openers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Open resolves name and opens data with it.
func Open(name string, data []byte) (Document, error) {
	o, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return o(data)
}

func init() {
	Register(DefaultOpener, OpenPDF)
}
