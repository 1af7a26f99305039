// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package rlog is a small leveled-logging helper, matching the shape of
// github.com/saferwall/pe/log as used from file.go (NewStdLogger,
// NewFilter, FilterLevel, Helper.Warnf/Errorf) — that subpackage's source
// wasn't itself part of the retrieved example set, only its call sites, so
// this reconstructs the same public surface rather than inventing a new one.
package rlog

import (
	"fmt"
	"io"
	"log"
)

// Level is a logging severity, ordered least to most severe.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Logger is the sink every Helper eventually writes through.
type Logger interface {
	Log(level Level, msg string)
}

// stdLogger writes every entry to an underlying *log.Logger, prefixed with
// its level.
type stdLogger struct {
	l *log.Logger
}

// NewStdLogger returns a Logger that writes to w using the standard
// library's log package, mirroring log.NewStdLogger(os.Stdout) at
// file.go's call site.
func NewStdLogger(w io.Writer) Logger {
	return &stdLogger{l: log.New(w, "", log.LstdFlags)}
}

func (s *stdLogger) Log(level Level, msg string) {
	s.l.Printf("[%s] %s", levelString(level), msg)
}

func levelString(l Level) string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// filter wraps a Logger and drops anything below its configured level.
type filter struct {
	next     Logger
	minLevel Level
}

// Option configures a filter built by NewFilter.
type Option func(*filter)

// FilterLevel sets the minimum level a filter passes through.
func FilterLevel(l Level) Option {
	return func(f *filter) { f.minLevel = l }
}

// NewFilter returns a Logger that forwards to next, dropping entries below
// the level set by FilterLevel (LevelInfo if unset).
func NewFilter(next Logger, opts ...Option) Logger {
	f := &filter{next: next, minLevel: LevelInfo}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *filter) Log(level Level, msg string) {
	if level < f.minLevel {
		return
	}
	f.next.Log(level, msg)
}

// Helper is the logging handle components hold, the same role file.go's
// *log.Helper plays on File.logger.
type Helper struct {
	logger Logger
}

// NewHelper wraps logger in a Helper.
func NewHelper(logger Logger) *Helper {
	return &Helper{logger: logger}
}

// Warnf logs a formatted warning. The builder and both emitters call this
// before turning a recoverable condition into a returned error, so a
// caller watching logs sees the diagnostic even if it also inspects the
// error value.
func (h *Helper) Warnf(format string, args ...interface{}) {
	if h == nil || h.logger == nil {
		return
	}
	h.logger.Log(LevelWarn, fmt.Sprintf(format, args...))
}

// Errorf logs a formatted error.
func (h *Helper) Errorf(format string, args ...interface{}) {
	if h == nil || h.logger == nil {
		return
	}
	h.logger.Log(LevelError, fmt.Sprintf(format, args...))
}
