// Package ocr locates the external OCR tools and runs the
// rasterize-and-recognize pipeline over PDFs. The recognition engine is the
// tesseract executable; the rasterizer is the poppler tool directory holding
// pdftoppm.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"docsearch/observe"
)

// Store keys for the persisted tool paths.
const (
	KeyRecognizerPath = "recognizer_path"
	KeyRasterizerPath = "rasterizer_path"
)

// Store is the persisted configuration collaborator. Satisfied by
// config.Store.
type Store interface {
	GetString(key string) string
	Set(key string, value any) error
}

// RunFunc invokes an external command and returns its stdout. Tests replace
// it to stub the tools.
type RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
			return nil, fmt.Errorf("%s: %w: %s", filepath.Base(name), err, bytes.TrimSpace(ee.Stderr))
		}
		return nil, fmt.Errorf("%s: %w", filepath.Base(name), err)
	}
	return out, nil
}

// Environment holds the resolved OCR tool paths for the lifetime of the
// process, independent of any one search run. Paths are loaded once from the
// persisted store, then auto-probed from platform-conventional install
// locations; explicit Set calls validate before committing and persist on
// success.
type Environment struct {
	store Store
	sink  observe.Sink

	mu         sync.RWMutex
	recognizer string
	rasterizer string

	recognizerCandidates []string
	rasterizerCandidates []string
	run                  RunFunc
}

// NewEnvironment loads persisted paths and probes the candidate lists for
// anything still unset, persisting the first hit.
func NewEnvironment(store Store, sink observe.Sink) *Environment {
	if sink == nil {
		sink = observe.Discard()
	}
	env := &Environment{
		store:                store,
		sink:                 sink,
		recognizerCandidates: recognizerCandidates(runtime.GOOS),
		rasterizerCandidates: rasterizerCandidates(runtime.GOOS),
		run:                  runCommand,
	}
	env.resolve()
	return env
}

// recognizerCandidates lists conventional tesseract install locations.
func recognizerCandidates(goos string) []string {
	switch goos {
	case "windows":
		return []string{
			`C:\Program Files\Tesseract-OCR\tesseract.exe`,
			`C:\Program Files (x86)\Tesseract-OCR\tesseract.exe`,
			`C:\Tesseract-OCR\tesseract.exe`,
		}
	case "darwin":
		return []string{
			"/opt/homebrew/bin/tesseract",
			"/usr/local/bin/tesseract",
		}
	default:
		return []string{
			"/usr/bin/tesseract",
			"/usr/local/bin/tesseract",
		}
	}
}

// rasterizerCandidates lists conventional poppler tool directories.
func rasterizerCandidates(goos string) []string {
	switch goos {
	case "windows":
		return []string{
			`C:\Program Files\poppler\Library\bin`,
			`C:\Program Files (x86)\poppler\Library\bin`,
			`C:\poppler\Library\bin`,
		}
	case "darwin":
		return []string{
			"/opt/homebrew/bin",
			"/usr/local/bin",
		}
	default:
		return []string{
			"/usr/bin",
			"/usr/local/bin",
		}
	}
}

// rasterizerTool is the page-to-image converter inside the rasterizer
// directory.
func rasterizerTool() string {
	if runtime.GOOS == "windows" {
		return "pdftoppm.exe"
	}
	return "pdftoppm"
}

// resolve loads persisted paths first, then probes candidates for anything
// still unset. A probed hit is persisted immediately.
func (e *Environment) resolve() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.store != nil {
		if p := e.store.GetString(KeyRecognizerPath); p != "" && fileExists(p) {
			e.recognizer = p
		}
		if p := e.store.GetString(KeyRasterizerPath); p != "" && dirExists(p) {
			e.rasterizer = p
		}
	}

	if e.recognizer == "" {
		for _, p := range e.recognizerCandidates {
			if fileExists(p) {
				e.recognizer = p
				e.persist(KeyRecognizerPath, p)
				break
			}
		}
	}
	if e.rasterizer == "" {
		for _, dir := range e.rasterizerCandidates {
			if fileExists(filepath.Join(dir, rasterizerTool())) {
				e.rasterizer = dir
				e.persist(KeyRasterizerPath, dir)
				break
			}
		}
	}

	e.sink.Debugf("ocr: resolved recognizer=%q rasterizer=%q", e.recognizer, e.rasterizer)
}

// persist writes a resolved path to the store (caller must hold the lock).
func (e *Environment) persist(key, value string) {
	if e.store == nil {
		return
	}
	if err := e.store.Set(key, value); err != nil {
		e.sink.Warnf("ocr: cannot persist %s: %v", key, err)
	}
}

// Resolve returns the current recognizer and rasterizer paths; either may be
// empty when unresolved.
func (e *Environment) Resolve() (recognizer, rasterizer string) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.recognizer, e.rasterizer
}

// Ready reports whether both tools are configured.
func (e *Environment) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.recognizer != "" && e.rasterizer != ""
}

// SetRecognizer sets the recognition-engine executable path. The path must
// exist on the filesystem; otherwise no mutation and no persistence happen
// and false is returned.
func (e *Environment) SetRecognizer(path string) bool {
	if !fileExists(path) {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recognizer = path
	e.persist(KeyRecognizerPath, path)
	return true
}

// SetRasterizer sets the rasterizer tool directory, with the same
// validate-before-commit contract as SetRecognizer.
func (e *Environment) SetRasterizer(dir string) bool {
	if !dirExists(dir) {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rasterizer = dir
	e.persist(KeyRasterizerPath, dir)
	return true
}

// Verify checks the environment by invoking the recognizer for its version
// string. Invocation failures come back as a non-ok result with a readable
// message, never as an error.
func (e *Environment) Verify(ctx context.Context) (bool, string) {
	recognizer, rasterizer := e.Resolve()

	if recognizer == "" {
		return false, "recognition engine path is not configured"
	}
	if rasterizer == "" {
		return false, "rasterizer tool directory is not configured"
	}

	out, err := e.run(ctx, recognizer, "--version")
	if err != nil {
		return false, fmt.Sprintf("cannot invoke recognition engine: %v", err)
	}

	version := strings.TrimSpace(out2line(out))
	return true, version
}

// out2line returns the first line of command output.
func out2line(out []byte) string {
	s := string(out)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
