// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"errors"
	"testing"

	"github.com/sassoftware/viya-pdf-autoxtract/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPage struct {
	items []document.TextItem
	plain string
	err   error
}

func (s stubPage) Number() int                             { return 1 }
func (s stubPage) TextItems() ([]document.TextItem, error) { return s.items, s.err }

type plainPage struct{ stubPage }

func (p plainPage) PlainText() (string, error) { return p.plain, nil }

func TestJoinLines(t *testing.T) {
	tests := []struct {
		name  string
		items []document.TextItem
		want  string
	}{
		{"empty", nil, ""},
		{"same line", []document.TextItem{{Text: "Hel", Y: 700}, {Text: "lo", Y: 700}}, "Hello"},
		{"sub-unit jitter stays on line", []document.TextItem{{Text: "a", Y: 700}, {Text: "b", Y: 700.6}, {Text: "c", Y: 699.8}}, "abc"},
		{"tolerance is between neighbours", []document.TextItem{{Text: "a", Y: 700}, {Text: "b", Y: 700.6}, {Text: "c", Y: 699.2}}, "ab\nc"},
		{"line break", []document.TextItem{{Text: "one", Y: 700}, {Text: "two", Y: 688}}, "one\ntwo"},
		{"exactly tolerance", []document.TextItem{{Text: "x", Y: 10}, {Text: "y", Y: 11}}, "xy"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JoinLines(tt.items))
		})
	}
}

func TestRenderLines_Error(t *testing.T) {
	_, err := RenderLines(context.Background(), stubPage{err: errors.New("bad stream")})
	assert.Error(t, err)
}

func TestRenderLines_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RenderLines(ctx, stubPage{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderPlain(t *testing.T) {
	text, err := RenderPlain(context.Background(), plainPage{stubPage{plain: "laid out"}})
	require.NoError(t, err)
	assert.Equal(t, "laid out", text)

	text, err = RenderPlain(context.Background(), stubPage{items: []document.TextItem{{Text: "fallback", Y: 1}}})
	require.NoError(t, err)
	assert.Equal(t, "fallback", text)
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "office flow", NormalizeText("oﬃce   ﬂow"))
	assert.Equal(t, "a b\nc", NormalizeText(" a \t b \n c "))
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"", Lines, Plain, Normalized} {
		f, err := Lookup(name)
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}
	_, err := Lookup("eval")
	assert.ErrorIs(t, err, ErrUnknownRenderer)
	assert.Subset(t, Names(), []string{Lines, Plain, Normalized})
}
