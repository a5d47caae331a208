package fetcher

import (
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DecodeText decodes a response body to a string, preferring UTF-8 and
// falling back to Latin-1 when the bytes are not valid UTF-8. contentType,
// when known, lets the charset detector use the declared encoding.
func DecodeText(body []byte, contentType string) string {
	if utf8.Valid(body) {
		return string(body)
	}

	// Declared or sniffed charset first
	if enc, _, _ := charset.DetermineEncoding(body, contentType); enc != nil {
		reader := transform.NewReader(bytes.NewReader(body), enc.NewDecoder())
		if decoded, err := io.ReadAll(reader); err == nil && utf8.Valid(decoded) {
			return string(decoded)
		}
	}

	// Latin-1 cannot fail: every byte maps to a code point
	reader := transform.NewReader(bytes.NewReader(body), charmap.ISO8859_1.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}
