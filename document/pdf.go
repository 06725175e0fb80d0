// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package document

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/sassoftware/viya-pdf-autoxtract/logger"
)

type pdfDocument struct {
	data   []byte
	r      *pdf.Reader
	once   sync.Once
	closed bool
}

type pdfPage struct {
	num  int
	page pdf.Page
}

// OpenPDF opens PDF bytes with the ledongthuc/pdf reader.
func OpenPDF(data []byte) (doc Document, err error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("open pdf: empty input")
	}
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("open pdf: %v", rec)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &pdfDocument{data: data, r: r}, nil
}

func (d *pdfDocument) NumPage() int {
	return d.r.NumPage()
}

func (d *pdfDocument) Page(n int) (p Page, err error) {
	if d.closed {
		return nil, fmt.Errorf("page %d: document closed", n)
	}
	if n < 1 || n > d.r.NumPage() {
		return nil, fmt.Errorf("page %d out of range [1,%d]", n, d.r.NumPage())
	}
	defer func() {
		if rec := recover(); rec != nil {
			p, err = nil, fmt.Errorf("page %d: %v", n, rec)
		}
	}()
	page := d.r.Page(n)
	if page.V.IsNull() {
		return nil, fmt.Errorf("page %d: null page", n)
	}
	return &pdfPage{num: n, page: page}, nil
}

func (d *pdfDocument) Metadata() (md *Metadata, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			md, err = nil, fmt.Errorf("metadata: %v", rec)
		}
	}()
	return readMetadata(d.r.Trailer())
}

func (d *pdfDocument) Close() error {
	d.once.Do(func() {
		d.closed = true
		d.r = nil
		d.data = nil
	})
	return nil
}

func (p *pdfPage) Number() int { return p.num }

func (p *pdfPage) TextItems() (items []TextItem, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			items, err = nil, fmt.Errorf("page %d content: %v", p.num, rec)
		}
	}()
	content := p.page.Content()
	items = make([]TextItem, 0, len(content.Text))
	for _, t := range content.Text {
		items = append(items, TextItem{Text: t.S, Y: t.Y})
	}
	return items, nil
}

func (p *pdfPage) PlainText() (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("page %d plain text: %v", p.num, rec)
		}
	}()
	fonts := cacheFonts(p.page)
	return p.page.GetPlainText(fonts)
}

// cacheFonts creates a one-time map of fonts for a page to avoid
// repeatedly parsing font charmaps.
func cacheFonts(page pdf.Page) map[string]*pdf.Font {
	fonts := make(map[string]*pdf.Font)
	for _, name := range page.Fonts() {
		if _, exists := fonts[name]; !exists {
			f := page.Font(name)
			fonts[name] = &f
			logger.Debug(fmt.Sprintf("Cached font: name=%s", name))
		}
	}
	return fonts
}

// HeaderVersion returns the version from the %PDF- header, or "".
func HeaderVersion(data []byte) string {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	line := string(head)
	i := strings.Index(line, "%PDF-")
	if i < 0 {
		return ""
	}
	line = line[i+len("%PDF-"):]
	if j := strings.IndexAny(line, "\r\n \t%"); j >= 0 {
		line = line[:j]
	}
	return strings.TrimSpace(line)
}
