package fetcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeTextUTF8(t *testing.T) {
	body := []byte("Schrödinger, Erwin")
	assert.Equal(t, "Schrödinger, Erwin", DecodeText(body, "text/plain; charset=utf-8"))
}

func TestDecodeTextLatin1(t *testing.T) {
	// "Schrödinger" with ö as the single Latin-1 byte 0xF6
	body := []byte{'S', 'c', 'h', 'r', 0xF6, 'd', 'i', 'n', 'g', 'e', 'r'}
	assert.Equal(t, "Schrödinger", DecodeText(body, "text/plain; charset=iso-8859-1"))
}

func TestDecodeTextLatin1WithoutDeclaredCharset(t *testing.T) {
	body := []byte{'c', 'a', 'f', 0xE9}
	assert.Equal(t, "café", DecodeText(body, ""))
}

func TestDecodeTextEmpty(t *testing.T) {
	assert.Equal(t, "", DecodeText(nil, ""))
}
