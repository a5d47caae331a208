package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/url2bibtex-go/internal/domain"
	"github.com/quantmind-br/url2bibtex-go/internal/utils"
)

// fetchFunc adapts a function to the domain.Fetcher interface for tests.
type fetchFunc func(ctx context.Context, opts domain.FetchOptions) (*domain.FetchResult, error)

func (f fetchFunc) Fetch(ctx context.Context, opts domain.FetchOptions) (*domain.FetchResult, error) {
	return f(ctx, opts)
}

func (f fetchFunc) Close() error { return nil }

// testDeps builds handler dependencies around a stub fetcher.
func testDeps(f fetchFunc) *Dependencies {
	return NewDependencies(f, utils.NewNopLogger())
}

// htmlResult wraps a page body as a fetch result.
func htmlResult(body string) *domain.FetchResult {
	return &domain.FetchResult{
		StatusCode:  200,
		Body:        []byte(body),
		ContentType: "text/html; charset=utf-8",
	}
}

func jsonResult(body string) *domain.FetchResult {
	return &domain.FetchResult{
		StatusCode:  200,
		Body:        []byte(body),
		ContentType: "application/json",
	}
}

func noFetch(t *testing.T) fetchFunc {
	return func(ctx context.Context, opts domain.FetchOptions) (*domain.FetchResult, error) {
		t.Fatalf("unexpected fetch of %s", opts.URL)
		return nil, nil
	}
}

func TestDefaultRegistryOrder(t *testing.T) {
	r := DefaultRegistry(testDeps(noFetch(t)))

	var names []string
	for _, h := range r.List() {
		names = append(names, h.Name())
	}

	assert.Equal(t, []string{
		"urlparam",
		"arxiv",
		"doi",
		"biorxiv",
		"pii",
		"cell",
		"openreview",
		"semanticscholar",
		"repo",
		"ieee",
		"aclanthology",
		"htmlmeta",
	}, names)
}

func TestDefaultRegistryDispatch(t *testing.T) {
	r := DefaultRegistry(testDeps(noFetch(t)))

	tests := []struct {
		url     string
		handler string
	}{
		{"https://example.com/page?bib=%40misc%7Bk%7D", "urlparam"},
		{"https://arxiv.org/abs/2103.15348", "arxiv"},
		{"https://arxiv.org/pdf/2103.15348.pdf", "arxiv"},
		{"https://doi.org/10.1234/example", "doi"},
		{"https://dx.doi.org/10.1234/example", "doi"},
		{"https://www.biorxiv.org/content/10.1101/2021.01.01.425001v2", "biorxiv"},
		{"https://www.sciencedirect.com/science/article/pii/S0004370221000862", "pii"},
		{"https://www.sciencedirect.com/science/article/abs/pii/S0004370221000862", "pii"},
		{"https://www.cell.com/cell/fulltext/S0092-8674(21)00001-2", "cell"},
		{"https://openreview.net/forum?id=abc123XY", "openreview"},
		{"https://openreview.net/pdf?id=abc123XY", "openreview"},
		{"https://www.semanticscholar.org/paper/Title-Words/0123456789abcdef0123456789abcdef01234567", "semanticscholar"},
		{"https://github.com/owner/repo", "repo"},
		{"https://gitlab.com/owner/repo", "repo"},
		{"https://zenodo.org/records/1234567", "repo"},
		{"https://ieeexplore.ieee.org/document/9856732", "ieee"},
		{"https://ieeexplore.ieee.org/abstract/document/9856732", "ieee"},
		{"https://aclanthology.org/2021.acl-long.1/", "aclanthology"},
		{"https://aclweb.org/anthology/P19-1001", "aclanthology"},
		{"https://www.nature.com/articles/s41586-021-03819-2", "htmlmeta"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			h := r.Resolve(tt.url)
			require.NotNil(t, h, "no handler claimed %s", tt.url)
			assert.Equal(t, tt.handler, h.Name())
		})
	}
}

func TestDefaultRegistryRejectsNonHTTP(t *testing.T) {
	r := DefaultRegistry(testDeps(noFetch(t)))
	assert.Nil(t, r.Resolve("ftp://example.com/file"))
	assert.Nil(t, r.Resolve("not a url"))
}
