// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sassoftware/viya-pdf-autoxtract/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failing returns a Func that fails the first n calls and counts attempts.
func failing(n int, err error, attempts *int) Func {
	return func(ctx context.Context, p document.Page) (string, error) {
		*attempts++
		if *attempts <= n {
			return "", err
		}
		return "ok", nil
	}
}

func TestWithRetries(t *testing.T) {
	tests := []struct {
		name         string
		failures     int
		retries      int
		err          error
		wantText     string
		wantErr      bool
		wantAttempts int
	}{
		{"first try", 0, 3, errors.New("x"), "ok", false, 1},
		{"recovers", 2, 3, errors.New("x"), "ok", false, 3},
		{"exhausted", 5, 2, errors.New("x"), "", true, 3},
		{"no retries", 1, 0, errors.New("x"), "", true, 1},
		{"fatal not retried", 1, 3, fmt.Errorf("broken: %w", ErrFatal), "", true, 1},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			fn := WithRetries(failing(tt.failures, tt.err, &attempts), tt.retries, time.Second)
			text, err := fn(context.Background(), stubPage{})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantAttempts, attempts)
		})
	}
}

func TestWithRetries_AttemptDeadline(t *testing.T) {
	attempts := 0
	block := func(ctx context.Context, p document.Page) (string, error) {
		attempts++
		<-ctx.Done()
		return "", ctx.Err()
	}
	fn := WithRetries(block, 1, 20*time.Millisecond)

	start := time.Now()
	_, err := fn(context.Background(), stubPage{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, attempts)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWithRetries_CallerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	fn := WithRetries(func(ctx context.Context, p document.Page) (string, error) {
		attempts++
		cancel()
		return "", ctx.Err()
	}, 3, 0)

	_, err := fn(ctx, stubPage{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestWithRetries_Panic(t *testing.T) {
	attempts := 0
	fn := WithRetries(func(ctx context.Context, p document.Page) (string, error) {
		attempts++
		if attempts == 1 {
			panic("boom")
		}
		return "ok", nil
	}, 1, 0)

	text, err := fn(context.Background(), stubPage{})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}

func TestWithRetries_Disabled(t *testing.T) {
	attempts := 0
	fn := WithRetries(failing(1, errors.New("x"), &attempts), 0, 0)
	_, err := fn(context.Background(), stubPage{})
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}
