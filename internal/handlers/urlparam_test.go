package handlers

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLParamCanHandle(t *testing.T) {
	h := NewURLParamHandler(testDeps(noFetch(t)))

	assert.True(t, h.CanHandle("https://example.com/page?bib=%40misc%7Bk%7D"))
	assert.True(t, h.CanHandle("https://example.com/page?other=1&bib=x"))
	assert.False(t, h.CanHandle("https://example.com/page?bibliography=x"))
	assert.False(t, h.CanHandle("https://example.com/page"))
}

func TestURLParamExtract(t *testing.T) {
	bib := "@misc{key2021,\n  title = {Example}\n}"
	pageURL := "https://example.com/page?bib=" + url.QueryEscape(url.QueryEscape(bib))

	h := NewURLParamHandler(testDeps(noFetch(t)))
	entry, err := h.Extract(context.Background(), pageURL)
	require.NoError(t, err)
	assert.Equal(t, bib, entry)
}

func TestURLParamExtractSingleEncoded(t *testing.T) {
	// A single level of encoding still round-trips: the second unescape
	// finds nothing left to decode
	h := NewURLParamHandler(testDeps(noFetch(t)))
	entry, err := h.Extract(context.Background(), "https://example.com/p?bib="+url.QueryEscape("@misc{k, title = {T}}"))
	require.NoError(t, err)
	assert.Equal(t, "@misc{k, title = {T}}", entry)
}

func TestURLParamNeverFetches(t *testing.T) {
	h := NewURLParamHandler(testDeps(noFetch(t)))
	_, err := h.Extract(context.Background(), "https://example.com/p?bib=%40misc%7Bk%7D")
	assert.NoError(t, err)
}
