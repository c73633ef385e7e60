// Package pdf extracts the native (embedded) text layer from PDF files.
// Rasterization and OCR live elsewhere; this package never touches page
// images.
package pdf

import (
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractNativeText returns the embedded text of every page in page order,
// newline-joined. Pages that yield no extractable text are skipped. Corrupt
// or unparseable files yield empty text and a nil error: per-file failure is
// degraded, not fatal. The underlying library can panic on malformed input,
// so every call into it is guarded.
func ExtractNativeText(path string) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = ""
			err = nil
		}
	}()

	f, ferr := os.Open(path)
	if ferr != nil {
		return "", ferr
	}
	defer f.Close()

	stat, serr := f.Stat()
	if serr != nil {
		return "", serr
	}

	reader, rerr := pdf.NewReader(f, stat.Size())
	if rerr != nil {
		return "", nil
	}

	// Safely obtain the page count; the library may panic on bad xrefs.
	pages := 0
	func() {
		defer func() { _ = recover() }()
		pages = reader.NumPage()
	}()
	if pages <= 0 {
		return "", nil
	}

	fonts := make(map[string]*pdf.Font)
	var parts []string
	for i := 1; i <= pages; i++ {
		func() {
			defer func() { _ = recover() }()
			page := reader.Page(i)
			if page.V.IsNull() {
				return
			}
			pageText, perr := page.GetPlainText(fonts)
			if perr != nil {
				return
			}
			if text := strings.TrimSpace(pageText); text != "" {
				parts = append(parts, text)
			}
		}()
	}

	return strings.Join(parts, "\n"), nil
}
