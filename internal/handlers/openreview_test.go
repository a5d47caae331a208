package handlers

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/url2bibtex-go/internal/domain"
)

func TestOpenReviewCanHandle(t *testing.T) {
	h := NewOpenReviewHandler(testDeps(noFetch(t)))

	assert.True(t, h.CanHandle("https://openreview.net/forum?id=abc123XY"))
	assert.True(t, h.CanHandle("https://openreview.net/pdf?id=abc-123_XY"))
	assert.False(t, h.CanHandle("https://openreview.net/group?id=ICLR.cc"))
}

func TestOpenReviewScrapesEmbeddedBibtex(t *testing.T) {
	embedded := "@inproceedings{doe2021example,\ntitle={Example},\nauthor={Jane Doe}\n}"
	page := `<html><body><a data-bibtex="` + url.QueryEscape(embedded) + `">BibTeX</a></body></html>`

	fetch := fetchFunc(func(ctx context.Context, opts domain.FetchOptions) (*domain.FetchResult, error) {
		assert.Equal(t, "https://openreview.net/forum", opts.URL)
		assert.Equal(t, "abc123", opts.Query.Get("id"))
		return htmlResult(page), nil
	})

	h := NewOpenReviewHandler(testDeps(fetch))
	entry, err := h.Extract(context.Background(), "https://openreview.net/forum?id=abc123")
	require.NoError(t, err)
	assert.Equal(t, embedded, entry)
}

func TestOpenReviewFallsBackToAPI(t *testing.T) {
	apiBody := `{"notes":[{
		"cdate": 1612137600000,
		"invitation": "ICLR.cc/2021/Conference/-/Blind_Submission",
		"content": {
			"title": "An Example Submission",
			"authors": ["Jane Doe", "John Smith"]
		}
	}]}`

	fetch := fetchFunc(func(ctx context.Context, opts domain.FetchOptions) (*domain.FetchResult, error) {
		if opts.URL == "https://openreview.net/forum" {
			// No embedded blob on the page
			return htmlResult("<html><body>loading...</body></html>"), nil
		}
		assert.Equal(t, "https://api.openreview.net/notes", opts.URL)
		return jsonResult(apiBody), nil
	})

	h := NewOpenReviewHandler(testDeps(fetch))
	entry, err := h.Extract(context.Background(), "https://openreview.net/forum?id=abc123")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(entry, "@inproceedings{doe2021,"))
	assert.Contains(t, entry, "title = {An Example Submission}")
	assert.Contains(t, entry, "author = {Jane Doe and John Smith}")
	assert.Contains(t, entry, "year = {2021}")
	assert.Contains(t, entry, "booktitle = {ICLR.cc}")
	assert.Contains(t, entry, "note = {OpenReview ID: abc123}")
}

func TestOpenReviewAPIValueWrappedFields(t *testing.T) {
	// API v2 wraps content values
	apiBody := `{"notes":[{
		"cdate": 1680000000000,
		"content": {
			"title": {"value": "Wrapped Title"},
			"authors": {"value": ["Jane Doe"]},
			"venue": {"value": "NeurIPS 2023"}
		}
	}]}`

	fetch := fetchFunc(func(ctx context.Context, opts domain.FetchOptions) (*domain.FetchResult, error) {
		if opts.URL == "https://openreview.net/forum" {
			return htmlResult("<html></html>"), nil
		}
		return jsonResult(apiBody), nil
	})

	h := NewOpenReviewHandler(testDeps(fetch))
	entry, err := h.Extract(context.Background(), "https://openreview.net/forum?id=xyz")
	require.NoError(t, err)

	assert.Contains(t, entry, "title = {Wrapped Title}")
	assert.Contains(t, entry, "booktitle = {NeurIPS 2023}")
}

func TestOpenReviewNoNotes(t *testing.T) {
	fetch := fetchFunc(func(ctx context.Context, opts domain.FetchOptions) (*domain.FetchResult, error) {
		if opts.URL == "https://openreview.net/forum" {
			return htmlResult("<html></html>"), nil
		}
		return jsonResult(`{"notes":[]}`), nil
	})

	h := NewOpenReviewHandler(testDeps(fetch))
	_, err := h.Extract(context.Background(), "https://openreview.net/forum?id=missing")
	assert.ErrorIs(t, err, domain.ErrNoResult)
}
