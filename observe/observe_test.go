package observe

import (
	"bytes"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestWriterSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf)

	sink.Debugf("read %d chars", 42)
	sink.Warnf("cannot open %s", "x.pdf")

	out := buf.String()
	assert.Contains(t, out, "[DEBUG] read 42 chars\n")
	assert.Contains(t, out, "[WARN] cannot open x.pdf\n")
}

func TestDiscardIsSilent(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard().Debugf("ignored %v", 1)
		Discard().Warnf("ignored")
	})
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short", 10))
	assert.Equal(t, "abcde...", Preview("abcdefgh", 5))
}

func TestPreviewCutsOnRuneBoundary(t *testing.T) {
	// "ééé" is six bytes; a cut at byte 3 would land inside the second rune.
	out := Preview("ééé", 3)
	assert.Equal(t, "é...", out)
	assert.True(t, utf8.ValidString(out))
}
