package domain

import (
	"context"
	"net/http"
	"net/url"
)

// Handler defines the interface for URL-to-BibTeX extraction handlers.
// A handler recognizes one family of URLs and knows how to turn them into
// a BibTeX entry.
type Handler interface {
	// Name returns the handler name
	Name() string
	// Description returns a short human-readable description of the sources covered
	Description() string
	// CanHandle returns true if this handler recognizes the given URL.
	// It must be a pure function of the URL string: no network access.
	CanHandle(url string) bool
	// Extract converts the URL into a BibTeX entry string.
	// It returns ErrNoResult (possibly wrapped) when extraction fails;
	// it never panics across this boundary.
	Extract(ctx context.Context, url string) (string, error)
}

// Fetcher defines the interface for HTTP fetching with retry and
// anti-blocking behavior.
type Fetcher interface {
	// Fetch performs a GET described by opts
	Fetch(ctx context.Context, opts FetchOptions) (*FetchResult, error)
	// Close releases resources
	Close() error
}

// Accept header values used by handlers.
const (
	AcceptJSON   = "application/json"
	AcceptAtom   = "application/atom+xml"
	AcceptBibTeX = "application/x-bibtex"
	AcceptHTML   = "text/html"
	AcceptText   = "text/plain"
	AcceptGitHub = "application/vnd.github.v3+json"
)

// FetchOptions describes a single GET request.
type FetchOptions struct {
	URL        string
	Query      url.Values
	Accept     string
	MaxRetries int // 0 means the client default
	// BrowserHeaders switches from the minimal tool User-Agent to a
	// randomized browser-like header set, to reduce anti-scraping rejections.
	BrowserHeaders bool
}

// FetchResult is a successful fetch outcome.
type FetchResult struct {
	StatusCode  int
	Body        []byte
	Headers     http.Header
	ContentType string
	URL         string
}
