// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package logger

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sassoftware/viya-pdf-autoxtract/tracer"
)

// LogLevel represents log severity
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
)

// LogFunc is a single logger function that handles all levels
type LogFunc func(level LogLevel, msg string, keyvals ...interface{})

var (
	mu      sync.RWMutex
	logFunc LogFunc = func(level LogLevel, msg string, keyvals ...interface{}) {}
)

// SetLogger sets the global logger function. A nil f is ignored.
func SetLogger(f LogFunc) {
	if f == nil {
		return
	}
	mu.Lock()
	logFunc = f
	mu.Unlock()
}

// FromSlog adapts a slog.Logger into a LogFunc.
func FromSlog(l *slog.Logger) LogFunc {
	return func(level LogLevel, msg string, keyvals ...interface{}) {
		l.Log(context.Background(), slogLevel(level), msg, keyvals...)
	}
}

func slogLevel(level LogLevel) slog.Level {
	switch level {
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func emit(level LogLevel, msg string, keyvals ...interface{}) {
	mu.RLock()
	f := logFunc
	mu.RUnlock()
	f(level, msg, keyvals...)
}

// Debug logs a message at debug level
// If the last keyvals element is a bool and true, it is treated as trace flag
func Debug(msg string, keyvals ...interface{}) {
	trace := false
	if len(keyvals) > 0 {
		if b, ok := keyvals[len(keyvals)-1].(bool); ok {
			trace = b
			keyvals = keyvals[:len(keyvals)-1]
		}
	}
	emit(DebugLevel, msg, keyvals...)

	if trace {
		tracer.Log(msg)
	}
}

// Info logs a message at info level
func Info(msg string, keyvals ...interface{}) {
	emit(InfoLevel, msg, keyvals...)
}

// Warn logs a message at warn level
func Warn(msg string, keyvals ...interface{}) {
	emit(WarnLevel, msg, keyvals...)
}

// Error logs a message at error level and always records it in the trace.
func Error(msg string, keyvals ...interface{}) {
	emit(ErrorLevel, msg, keyvals...)
	tracer.Log(msg)
}
