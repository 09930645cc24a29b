package source

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// LookupEncoding resolves an encoding name such as "utf-8", "shift_jis" or
// "windows-1252". The empty name means UTF-8.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "sjis", "shift-jis", "shiftjis":
		return japanese.ShiftJIS, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown source encoding %q: %w", name, err)
	}
	return enc, nil
}

// Decode converts data to UTF-8. A UTF-8 or UTF-16 byte order mark takes
// precedence over enc and is stripped. Invalid UTF-8 input is an error when
// enc is UTF-8.
func Decode(data []byte, enc encoding.Encoding) (string, error) {
	if enc == nil {
		enc = unicode.UTF8
	}
	var t transform.Transformer = unicode.BOMOverride(enc.NewDecoder())
	if enc == unicode.UTF8 && !hasUTF16BOM(data) {
		// BOMOverride strips a UTF-8 BOM; the validator rejects bad bytes
		// instead of replacing them.
		t = transform.Chain(unicode.BOMOverride(transform.Nop), encoding.UTF8Validator)
	}
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), t))
	if err != nil {
		return "", fmt.Errorf("failed to decode source: %w", err)
	}
	return string(out), nil
}

func hasUTF16BOM(data []byte) bool {
	return bytes.HasPrefix(data, []byte{0xFF, 0xFE}) || bytes.HasPrefix(data, []byte{0xFE, 0xFF})
}
