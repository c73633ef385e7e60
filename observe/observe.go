// Package observe provides the diagnostic sink injected into the search
// engine and OCR pipeline. The sink is pure observation: a nil or discarding
// sink never changes search behavior or outcomes.
package observe

import (
	"fmt"
	"io"
	"sync"
	"unicode/utf8"
)

// Sink receives human-readable trace lines: stage markers, character counts,
// short text previews, and recovered errors.
type Sink interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type nopSink struct{}

func (nopSink) Debugf(string, ...any) {}
func (nopSink) Warnf(string, ...any)  {}

// Discard returns a sink that drops everything.
func Discard() Sink { return nopSink{} }

// writerSink writes bracketed-level lines to an io.Writer.
type writerSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink returns a sink that writes "[DEBUG] ..." / "[WARN] ..." lines
// to w. Safe for use from multiple goroutines.
func NewWriterSink(w io.Writer) Sink {
	return &writerSink{w: w}
}

func (s *writerSink) Debugf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "[DEBUG] "+format+"\n", args...)
}

func (s *writerSink) Warnf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "[WARN] "+format+"\n", args...)
}

// Preview shortens s for inclusion in a trace line. The cut lands on a rune
// boundary so the result stays valid UTF-8.
func Preview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
