// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package render holds the page render functions. Render functions are
// selected by name so that isolated workers can resolve the same code
// independently instead of receiving it over the wire.
package render

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/sassoftware/viya-pdf-autoxtract/document"
	"golang.org/x/text/unicode/norm"
)

// Func renders one page into text.
type Func func(ctx context.Context, p document.Page) (string, error)

var (
	// ErrUnknownRenderer is returned for names missing from the registry.
	ErrUnknownRenderer = errors.New("unknown renderer")

	// ErrFatal marks a render failure that compromises the whole execution
	// unit. Executors abort instead of substituting an empty page.
	ErrFatal = errors.New("fatal render error")
)

const (
	Lines      = "lines"
	Plain      = "plain"
	Normalized = "normalized"

	// Default is used when no renderer is named.
	Default = Lines

	// LineTolerance is the vertical distance beyond which two items are on
	// different lines.
	LineTolerance = 1.0
)

var (
	mu        sync.RWMutex
	renderers = map[string]Func{}
)

// Register makes a render function available by name.
func Register(name string, f Func) {
	if f == nil {
		panic("render: Register func is nil")
	}
	mu.Lock()
	defer mu.Unlock()
	renderers[name] = f
}

// Lookup returns the render function registered under name.
func Lookup(name string) (Func, error) {
	if name == "" {
		name = Default
	}
	mu.RLock()
	defer mu.RUnlock()
	f, ok := renderers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRenderer, name)
	}
	return f, nil
}

// Names lists the registered renderers.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(renderers))
	for n := range renderers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(Lines, RenderLines)
	Register(Plain, RenderPlain)
	Register(Normalized, RenderNormalized)
}

// JoinLines concatenates items, starting a new line whenever the vertical
// position moves by more than LineTolerance.
func JoinLines(items []document.TextItem) string {
	var b strings.Builder
	for i, it := range items {
		if i > 0 && math.Abs(it.Y-items[i-1].Y) > LineTolerance {
			b.WriteByte('\n')
		}
		b.WriteString(it.Text)
	}
	return b.String()
}

// RenderLines is the default renderer.
func RenderLines(ctx context.Context, p document.Page) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	items, err := p.TextItems()
	if err != nil {
		return "", err
	}
	return JoinLines(items), nil
}

// RenderPlain uses the backend's own layout when available.
func RenderPlain(ctx context.Context, p document.Page) (string, error) {
	if pt, ok := p.(document.PlainTexter); ok {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return pt.PlainText()
	}
	return RenderLines(ctx, p)
}

// RenderNormalized applies NFKC, which splits typographic ligatures, and
// collapses runs of horizontal whitespace to a single space.
func RenderNormalized(ctx context.Context, p document.Page) (string, error) {
	text, err := RenderLines(ctx, p)
	if err != nil {
		return "", err
	}
	return NormalizeText(text), nil
}

// NormalizeText is the text transform behind RenderNormalized.
func NormalizeText(s string) string {
	s = norm.NFKC.String(s)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.Join(strings.Fields(l), " ")
	}
	return strings.Join(lines, "\n")
}
