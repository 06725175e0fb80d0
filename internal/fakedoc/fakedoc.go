// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package fakedoc is a synthetic paginated document backend for tests.
//
// A document is UTF-8 text: pages are separated by form feeds and lines by
// newlines. Page contents may carry markers that inject failures:
//
//	!fail   TextItems returns an error
//	!panic  TextItems panics
//	!flaky  TextItems fails the first time each opened document reads the page
//	!fatal  the "fake" renderer returns render.ErrFatal
//	!sleep  the "fake" renderer blocks until its context is done
//	!exit   the "fake" renderer exits the process when running as a worker
//
// A document whose first page is "!open" cannot be opened, "!empty" has no
// pages at all, and "!nometa" anywhere makes Metadata fail.
package fakedoc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sassoftware/viya-pdf-autoxtract/document"
	"github.com/sassoftware/viya-pdf-autoxtract/render"
)

// Name is the opener and renderer name this package registers.
const Name = "fake"

// Separator between pages in a fake document.
const Separator = "\f"

// Empty is a fake document without pages.
const Empty = "!empty"

var (
	opened atomic.Int64
	closed atomic.Int64
)

func init() {
	document.Register(Name, Open)
	render.Register(Name, Render)
}

// Build joins page texts into a fake document.
func Build(pages ...string) []byte {
	return []byte(strings.Join(pages, Separator))
}

// Generate builds an n-page document with two lines per page.
func Generate(n int) []byte {
	pages := make([]string, n)
	for i := range pages {
		pages[i] = PageText(i + 1)
	}
	return Build(pages...)
}

// PageText is the content Generate uses for page n.
func PageText(n int) string {
	return fmt.Sprintf("page %d heading\npage %d body", n, n)
}

// Counts reports how many documents were opened and closed.
func Counts() (open, close int64) {
	return opened.Load(), closed.Load()
}

// ResetCounts zeroes the open/close counters.
func ResetCounts() {
	opened.Store(0)
	closed.Store(0)
}

type doc struct {
	pages  []string
	nometa bool
	closed atomic.Bool
	reads  sync.Map // page number -> *atomic.Int32
}

type page struct {
	doc  *doc
	num  int
	text string
}

// Open is the document.Opener for fake documents.
func Open(data []byte) (document.Document, error) {
	s := string(data)
	if strings.HasPrefix(s, "!open") {
		return nil, errors.New("fakedoc: cannot open document")
	}
	d := &doc{nometa: strings.Contains(s, "!nometa")}
	if s != "" && s != Empty {
		d.pages = strings.Split(s, Separator)
	}
	opened.Add(1)
	return d, nil
}

func (d *doc) NumPage() int { return len(d.pages) }

func (d *doc) Page(n int) (document.Page, error) {
	if d.closed.Load() {
		return nil, errors.New("fakedoc: document closed")
	}
	if n < 1 || n > len(d.pages) {
		return nil, fmt.Errorf("fakedoc: page %d out of range", n)
	}
	return &page{doc: d, num: n, text: d.pages[n-1]}, nil
}

func (d *doc) Metadata() (*document.Metadata, error) {
	if d.nometa {
		return nil, errors.New("fakedoc: metadata unavailable")
	}
	return &document.Metadata{Info: &document.Info{Title: "fake document", Producer: "fakedoc"}}, nil
}

func (d *doc) Close() error {
	if d.closed.Swap(true) {
		return errors.New("fakedoc: closed twice")
	}
	closed.Add(1)
	return nil
}

func (p *page) Number() int { return p.num }

func (p *page) TextItems() ([]document.TextItem, error) {
	switch {
	case strings.Contains(p.text, "!fail"):
		return nil, fmt.Errorf("fakedoc: page %d is corrupt", p.num)
	case strings.Contains(p.text, "!panic"):
		panic(fmt.Sprintf("fakedoc: page %d exploded", p.num))
	case strings.Contains(p.text, "!flaky"):
		n, _ := p.doc.reads.LoadOrStore(p.num, new(atomic.Int32))
		if n.(*atomic.Int32).Add(1) == 1 {
			return nil, fmt.Errorf("fakedoc: page %d not ready", p.num)
		}
	}
	lines := strings.Split(p.text, "\n")
	items := make([]document.TextItem, 0, len(lines))
	for i, l := range lines {
		items = append(items, document.TextItem{Text: l, Y: 800 - float64(i)*12})
	}
	return items, nil
}

// Render is the "fake" render function; it honours the renderer markers and
// otherwise behaves like render.RenderLines.
func Render(ctx context.Context, p document.Page) (string, error) {
	fp, ok := p.(*page)
	if ok {
		switch {
		case strings.Contains(fp.text, "!fatal"):
			return "", fmt.Errorf("fakedoc: page %d: %w", fp.num, render.ErrFatal)
		case strings.Contains(fp.text, "!sleep"):
			<-ctx.Done()
			return "", ctx.Err()
		case strings.Contains(fp.text, "!exit"):
			if os.Getenv("AUTOXTRACT_WORKER") == "1" {
				os.Exit(7)
			}
			return "", fmt.Errorf("fakedoc: page %d wanted to exit", fp.num)
		}
	}
	return render.RenderLines(ctx, p)
}
