// Package search implements the document search engine: enumeration of
// candidate files under a root, per-format text extraction, substring
// matching with occurrence counts, and cancellable progress-reporting runs.
package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docsearch/observe"
)

// ErrBlankTerm is returned when the search term is empty or whitespace-only.
var ErrBlankTerm = errors.New("search term must not be blank")

// Request describes one search run. It is immutable for the duration of the
// run.
type Request struct {
	Root          string
	Term          string
	CaseSensitive bool
	UseOCR        bool
}

// Result is one matching file. Occurrences is always >= 1; files without a
// match produce no Result at all.
type Result struct {
	Path        string // absolute
	Name        string
	Ext         string
	Occurrences int
}

// ProgressFunc receives (percent 0-100, current file name) after every
// attempted file, matched or not, erroring or not.
type ProgressFunc func(percent float64, name string)

// Engine runs searches. An engine supports at most one active run at a time;
// the orchestrating surface is responsible for not starting a second run
// while one is in flight.
type Engine struct {
	registry *Registry
	sink     observe.Sink

	// OnProgress is the optional progress side-channel (nil if unused).
	OnProgress ProgressFunc
}

// NewEngine creates an engine around a registry. A nil sink discards
// diagnostics without changing behavior.
func NewEngine(registry *Registry, sink observe.Sink) *Engine {
	if sink == nil {
		sink = observe.Discard()
	}
	return &Engine{registry: registry, sink: sink}
}

// Validate checks the request without touching any file content.
func Validate(req Request) error {
	if _, err := os.Stat(req.Root); err != nil {
		return fmt.Errorf("search root %q: %w", req.Root, err)
	}
	if strings.TrimSpace(req.Term) == "" {
		return ErrBlankTerm
	}
	return nil
}

// Search runs one request to completion or cancellation. Results appear in
// enumeration order. Only request validation crosses the run boundary as an
// error; every per-file failure is absorbed as "no match" plus a trace line.
// Cancellation via ctx is a normal outcome: the partial results gathered so
// far come back with a nil error.
func (e *Engine) Search(ctx context.Context, req Request) ([]Result, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	term := Normalize(req.Term, req.CaseSensitive)

	files := Enumerate(req.Root)
	total := len(files)
	e.sink.Debugf("search: %d candidate files under %s", total, req.Root)
	if total == 0 {
		return nil, nil
	}

	var results []Result
	for i, path := range files {
		// The cancellation token is checked once per iteration; an
		// extraction already in progress always completes first.
		if ctx.Err() != nil {
			e.sink.Debugf("search: cancelled after %d of %d files", i, total)
			break
		}

		content := e.registry.Extract(ctx, path, req.UseOCR)
		if content != "" {
			normalized := Normalize(content, req.CaseSensitive)
			if n := CountOccurrences(normalized, term); n > 0 {
				results = append(results, Result{
					Path:        absolutePath(path),
					Name:        filepath.Base(path),
					Ext:         filepath.Ext(path),
					Occurrences: n,
				})
			}
		}

		if e.OnProgress != nil {
			e.OnProgress(float64(i+1)/float64(total)*100, filepath.Base(path))
		}
	}

	e.sink.Debugf("search: %d files matched", len(results))
	return results, nil
}

// absolutePath returns the absolute form of path, or path unchanged when it
// cannot be resolved.
func absolutePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
