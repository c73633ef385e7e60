package search

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/richardlehane/mscfb"
	"github.com/xuri/excelize/v2"

	"docsearch/observe"
	"docsearch/search/pdf"
)

// Capability describes how well an extension is served by the runtime
// environment.
type Capability int

const (
	// CapabilityUnsupported means the extension is not in the supported set.
	CapabilityUnsupported Capability = iota
	// CapabilityDegraded means files are enumerated and a best-effort
	// reader runs, but full-fidelity extraction is not available.
	CapabilityDegraded
	// CapabilityFull means the extension has a complete extractor.
	CapabilityFull
)

// Extractor extracts plain text from one file. An empty string with a nil
// error means the file simply yielded no text.
type Extractor interface {
	ExtractText(path string) (string, error)
}

// OCREnvironment is the slice of the OCR environment the registry needs for
// PDF dispatch. Satisfied by *ocr.Environment.
type OCREnvironment interface {
	Ready() bool
	ExtractText(ctx context.Context, path string) (string, error)
}

// Registry holds the per-extension extractors and the OCR environment used
// for PDFs when the caller requests OCR.
type Registry struct {
	extractors map[string]Extractor
	degraded   map[string]bool
	env        OCREnvironment
	sink       observe.Sink
}

// NewRegistry creates a registry with the built-in extractors. env may be
// nil, in which case OCR requests degrade to native PDF extraction.
func NewRegistry(env OCREnvironment, sink observe.Sink) *Registry {
	if sink == nil {
		sink = observe.Discard()
	}
	r := &Registry{
		extractors: make(map[string]Extractor),
		degraded:   make(map[string]bool),
		env:        env,
		sink:       sink,
	}

	plain := &PlainTextExtractor{}
	r.extractors[".txt"] = plain
	r.extractors[".html"] = plain
	r.extractors[".htm"] = plain
	r.extractors[".php"] = plain
	r.extractors[".docx"] = &DOCXExtractor{}
	r.extractors[".xlsx"] = &XLSXExtractor{}
	r.extractors[".xls"] = &XLSExtractor{}
	r.degraded[".xls"] = true

	return r
}

// Capability reports the support level for an extension (with or without the
// leading dot, any case).
func (r *Registry) Capability(ext string) Capability {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if !SupportedExtensions[ext] {
		return CapabilityUnsupported
	}
	if r.degraded[ext] {
		return CapabilityDegraded
	}
	return CapabilityFull
}

// Extract returns the plain text of the file at path, dispatching on the
// lower-cased extension. Every per-file failure (corrupt archive, malformed
// workbook, I/O error, library panic) is absorbed here: the file yields
// empty text and a trace line, never an error that could abort the batch.
func (r *Registry) Extract(ctx context.Context, path string, useOCR bool) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.sink.Warnf("extract: panic reading %s: %v", path, rec)
			text = ""
		}
	}()

	ext := strings.ToLower(filepath.Ext(path))

	var err error
	if ext == ".pdf" {
		text, err = r.extractPDF(ctx, path, useOCR)
	} else if e, ok := r.extractors[ext]; ok {
		text, err = e.ExtractText(path)
	} else {
		return ""
	}

	if err != nil {
		r.sink.Warnf("extract: %s: %v", path, err)
		return ""
	}
	r.sink.Debugf("extract: %s: %d chars (preview: %q)", filepath.Base(path), len(text), observe.Preview(text, 60))
	return text
}

// extractPDF applies the OCR fallback policy for one PDF. With the OCR flag
// off, or with an unready environment, extraction is native-only. With the
// flag on and a ready environment every page goes through OCR; there is no
// native-text-length shortcut, since scanned documents can carry ghost text
// layers that would defeat the user's explicit request. An OCR failure falls
// back to native text for this file only.
func (r *Registry) extractPDF(ctx context.Context, path string, useOCR bool) (string, error) {
	if !useOCR {
		return pdf.ExtractNativeText(path)
	}
	if r.env == nil || !r.env.Ready() {
		r.sink.Debugf("extract: ocr requested but environment not configured, native text only for %s", filepath.Base(path))
		return pdf.ExtractNativeText(path)
	}

	text, err := r.env.ExtractText(ctx, path)
	if err != nil {
		r.sink.Warnf("extract: ocr failed for %s: %v (falling back to native text)", path, err)
		return pdf.ExtractNativeText(path)
	}
	return text, nil
}

// PlainTextExtractor reads .txt, .html, .htm, and .php files as plain text
// through the fixed encoding ladder.
type PlainTextExtractor struct{}

// ExtractText implements the Extractor interface for plain-text formats.
func (e *PlainTextExtractor) ExtractText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text, ok := DecodeText(raw)
	if !ok {
		// Undecodable bytes are degraded, not fatal.
		return "", nil
	}
	return text, nil
}

// DOCXExtractor extracts paragraph text from .docx files (Office Open XML).
type DOCXExtractor struct{}

// documentXML mirrors the parts of word/document.xml we read.
type documentXML struct {
	Body struct {
		Paragraphs []struct {
			Runs []struct {
				Text []struct {
					Content string `xml:",chardata"`
				} `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

// ExtractText implements the Extractor interface for DOCX files. Paragraph
// text is concatenated newline-joined in document order.
func (e *DOCXExtractor) ExtractText(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	for _, file := range zr.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("read document.xml: %w", err)
		}

		var doc documentXML
		if err := xml.Unmarshal(content, &doc); err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}

		var b strings.Builder
		for i, para := range doc.Body.Paragraphs {
			if i > 0 {
				b.WriteString("\n")
			}
			for _, run := range para.Runs {
				for _, t := range run.Text {
					b.WriteString(t.Content)
				}
			}
		}
		return b.String(), nil
	}

	return "", nil
}

// XLSXExtractor extracts cell text from .xlsx workbooks.
type XLSXExtractor struct{}

// ExtractText implements the Extractor interface for XLSX files. Worksheets
// are read in workbook order; every non-empty cell is stringified and all
// tokens are joined with single spaces. Formula cells come back as their
// cached computed values, not formula text.
func (e *XLSXExtractor) ExtractText(path string) (string, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	var tokens []string
	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		for _, row := range rows {
			for _, cell := range row {
				if cell != "" {
					tokens = append(tokens, cell)
				}
			}
		}
	}

	return strings.Join(tokens, " "), nil
}

// XLSExtractor is the degraded reader for legacy .xls workbooks: it opens
// the compound-file container and pulls printable strings out of the
// Workbook stream rather than parsing BIFF records.
type XLSExtractor struct{}

// ExtractText implements the Extractor interface for XLS files.
func (e *XLSExtractor) ExtractText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	doc, err := mscfb.New(f)
	if err != nil {
		return "", fmt.Errorf("open compound file: %w", err)
	}

	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name != "Workbook" && entry.Name != "Book" {
			continue
		}
		data, err := io.ReadAll(entry)
		if err != nil {
			return "", fmt.Errorf("read workbook stream: %w", err)
		}
		return scanPrintableStrings(data), nil
	}

	return "", nil
}

// scanPrintableStrings collects ASCII and UTF-16LE runs of at least minRun
// printable characters from raw stream bytes.
func scanPrintableStrings(data []byte) string {
	const minRun = 4
	var tokens []string

	printable := func(b byte) bool { return b >= 0x20 && b < 0x7f }

	// ASCII runs
	start := -1
	for i := 0; i <= len(data); i++ {
		if i < len(data) && printable(data[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && i-start >= minRun {
			tokens = append(tokens, string(data[start:i]))
		}
		start = -1
	}

	// UTF-16LE runs (printable ASCII low byte, zero high byte)
	var run []byte
	flush := func() {
		if len(run) >= minRun {
			tokens = append(tokens, string(run))
		}
		run = nil
	}
	for i := 0; i+1 < len(data); i += 2 {
		if printable(data[i]) && data[i+1] == 0 {
			run = append(run, data[i])
			continue
		}
		flush()
	}
	flush()

	return strings.Join(tokens, " ")
}
