package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Recognition settings. 300 DPI keeps recognition accuracy reasonable on
// scanned pages; the dual-language model and auto page segmentation match
// the documents this tool is used on.
const (
	rasterDPI   = "300"
	languages   = "spa+eng"
	pageSegMode = "3"
)

// ErrNotConfigured is returned when the pipeline runs without both tool
// paths resolved. Callers degrade to native extraction on any pipeline
// error.
var ErrNotConfigured = errors.New("ocr environment is not configured")

// ExtractText rasterizes every page of the PDF at path to 300 DPI images and
// runs the recognition engine over each one. Per-page text is joined with a
// blank line; pages that yield no text are skipped. When every page is blank
// the result is empty text with a nil error.
func (e *Environment) ExtractText(ctx context.Context, path string) (string, error) {
	recognizer, rasterizer := e.Resolve()
	if recognizer == "" || rasterizer == "" {
		return "", ErrNotConfigured
	}

	// Page count is diagnostic only; a malformed file still goes through
	// the rasterizer, which produces its own error if truly unreadable.
	if pages, err := api.PageCountFile(path); err == nil {
		e.sink.Debugf("ocr: %s: %d pages", filepath.Base(path), pages)
	}

	tmpDir, err := os.MkdirTemp("", "docsearch_ocr_*")
	if err != nil {
		return "", fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	tool := filepath.Join(rasterizer, rasterizerTool())
	if _, err := e.run(ctx, tool, "-r", rasterDPI, "-png", path, prefix); err != nil {
		return "", fmt.Errorf("rasterize: %w", err)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return "", fmt.Errorf("read raster dir: %w", err)
	}
	// pdftoppm pads page numbers, so lexical order is page order.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var parts []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		img := filepath.Join(tmpDir, entry.Name())
		out, err := e.run(ctx, recognizer, img, "stdout", "-l", languages, "--psm", pageSegMode)
		if err != nil {
			return "", fmt.Errorf("recognize %s: %w", entry.Name(), err)
		}
		if text := strings.TrimSpace(string(out)); text != "" {
			parts = append(parts, text)
		}
	}

	e.sink.Debugf("ocr: %s: recognized %d pages with text", filepath.Base(path), len(parts))
	return strings.Join(parts, "\n\n"), nil
}
