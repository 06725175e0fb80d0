// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sassoftware/viya-pdf-autoxtract/document"
	"github.com/sassoftware/viya-pdf-autoxtract/logger"
)

// WithRetries wraps fn so that a failing page is attempted up to retries
// more times. When timeout is positive every attempt gets its own deadline.
// ErrFatal and cancellation of the caller's context are never retried, and a
// panic counts as a failed attempt.
func WithRetries(fn Func, retries int, timeout time.Duration) Func {
	if retries <= 0 && timeout <= 0 {
		return fn
	}
	return func(ctx context.Context, p document.Page) (string, error) {
		var (
			text string
			err  error
		)
		for attempt := 0; attempt <= retries; attempt++ {
			text, err = attemptPage(ctx, fn, p, timeout)
			if err == nil || errors.Is(err, ErrFatal) || ctx.Err() != nil {
				return text, err
			}
			if attempt < retries {
				logger.Debug(fmt.Sprintf("Retrying page extraction: page=%d attempt=%d err=%v", p.Number(), attempt+1, err), true)
			}
		}
		return text, err
	}
}

func attemptPage(ctx context.Context, fn Func, p document.Page, timeout time.Duration) (text string, err error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d panicked: %v", p.Number(), r)
		}
	}()
	return fn(ctx, p)
}
