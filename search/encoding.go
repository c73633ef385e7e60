package search

import (
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// decoders is the fixed encoding ladder for plain-text reads: UTF-8 first,
// then ISO-8859-1, then Windows-1252. The first decoder that accepts the
// bytes wins.
var decoders = []struct {
	name string
	enc  encoding.Encoding
}{
	{"utf-8", unicode.UTF8},
	{"iso-8859-1", charmap.ISO8859_1},
	{"windows-1252", charmap.Windows1252},
}

// DecodeText decodes raw bytes through the encoding ladder. When every
// decoder rejects the input it returns ("", false); encoding failure is
// degraded, not fatal.
func DecodeText(raw []byte) (string, bool) {
	for _, d := range decoders {
		if d.enc == unicode.UTF8 {
			if utf8.Valid(raw) {
				return string(raw), true
			}
			continue
		}
		out, err := d.enc.NewDecoder().Bytes(raw)
		if err != nil {
			continue
		}
		return string(out), true
	}
	return "", false
}
