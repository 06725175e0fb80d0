// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package tracer

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// maxMessages bounds the buffer; the oldest entries are dropped first.
const maxMessages = 4096

var (
	mu            sync.Mutex
	traceMessages []string
)

// Log just adds a message to the trace log.
func Log(msg string) {
	mu.Lock()
	defer mu.Unlock()
	if len(traceMessages) >= maxMessages {
		traceMessages = traceMessages[1:]
	}
	traceMessages = append(traceMessages, msg)
}

// Messages returns a copy of the buffered trace.
func Messages() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, len(traceMessages))
	copy(out, traceMessages)
	return out
}

// Reset drops the buffered trace without printing it.
func Reset() {
	mu.Lock()
	traceMessages = nil
	mu.Unlock()
}

// FlushTo writes the accumulated trace log to w and resets it.
func FlushTo(w io.Writer) error {
	mu.Lock()
	msgs := traceMessages
	// reset so the next run starts fresh
	traceMessages = nil
	mu.Unlock()

	for _, msg := range msgs {
		if _, err := fmt.Fprintln(w, msg); err != nil {
			return err
		}
	}
	return nil
}

// Flush prints the accumulated trace log to stderr and resets it.
func Flush() {
	_ = FlushTo(os.Stderr)
}
