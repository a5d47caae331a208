package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/url2bibtex-go/internal/domain"
)

func TestACLAnthologyCanHandle(t *testing.T) {
	h := NewACLAnthologyHandler(testDeps(noFetch(t)))

	assert.True(t, h.CanHandle("https://aclanthology.org/2021.acl-long.1"))
	assert.True(t, h.CanHandle("https://aclanthology.org/2021.acl-long.1/"))
	assert.True(t, h.CanHandle("https://aclanthology.org/P19-1001.bib"))
	assert.True(t, h.CanHandle("https://aclweb.org/anthology/P19-1001"))
	assert.False(t, h.CanHandle("https://example.org/2021.acl-long.1"))
}

func TestACLAnthologyExtract(t *testing.T) {
	bib := "@inproceedings{doe-2021-example,\n  title = \"Example\",\n  author = \"Doe, Jane\"\n}"

	fetch := fetchFunc(func(ctx context.Context, opts domain.FetchOptions) (*domain.FetchResult, error) {
		assert.Equal(t, "https://aclanthology.org/2021.acl-long.1.bib", opts.URL)
		assert.True(t, opts.BrowserHeaders)
		return &domain.FetchResult{
			StatusCode:  200,
			Body:        []byte(bib),
			ContentType: "text/plain",
		}, nil
	})

	h := NewACLAnthologyHandler(testDeps(fetch))
	entry, err := h.Extract(context.Background(), "https://aclanthology.org/2021.acl-long.1/")
	require.NoError(t, err)
	assert.Equal(t, bib, entry)
}

func TestACLAnthologyRejectsNonBibtexBody(t *testing.T) {
	fetch := fetchFunc(func(ctx context.Context, opts domain.FetchOptions) (*domain.FetchResult, error) {
		return htmlResult("<html>404</html>"), nil
	})

	h := NewACLAnthologyHandler(testDeps(fetch))
	_, err := h.Extract(context.Background(), "https://aclanthology.org/2021.acl-long.9999")
	assert.ErrorIs(t, err, domain.ErrNoResult)
}
