package pdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeMinimalPDF emits a one-page PDF with a single text operation,
// computing the cross-reference offsets as it goes.
func writeMinimalPDF(t *testing.T, path, text string) {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, 0, 5)
	addObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	stream := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)

	addObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	addObj("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	addObj("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
		"/Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>\nendobj\n")
	addObj(fmt.Sprintf("4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n",
		len(stream), stream))
	addObj("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	xrefStart := buf.Len()
	buf.WriteString("xref\n")
	fmt.Fprintf(&buf, "0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefStart)

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestExtractNativeText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	writeMinimalPDF(t, path, "Hello native text")

	text, err := ExtractNativeText(path)
	require.NoError(t, err)
	assert.Contains(t, text, "Hello")
	assert.Contains(t, text, "native")
}

func TestExtractNativeTextCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 truncated garbage"), 0o644))

	text, err := ExtractNativeText(path)
	assert.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestExtractNativeTextMissingFile(t *testing.T) {
	_, err := ExtractNativeText(filepath.Join(t.TempDir(), "absent.pdf"))
	assert.Error(t, err)
}
