// Package converter exposes the URL-to-BibTeX facade used by the CLI and
// the HTTP server.
package converter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quantmind-br/url2bibtex-go/internal/domain"
	"github.com/quantmind-br/url2bibtex-go/internal/fetcher"
	"github.com/quantmind-br/url2bibtex-go/internal/handlers"
	"github.com/quantmind-br/url2bibtex-go/internal/utils"
)

// Converter resolves URLs to BibTeX entries through an ordered handler
// registry. Exactly one handler runs per conversion: the first whose
// CanHandle accepts the URL. A failing handler never falls through to the
// next one.
type Converter struct {
	registry *handlers.Registry
	logger   *utils.Logger
}

// Options configure a Converter.
type Options struct {
	// Timeout applies per fetch, not per conversion.
	Timeout time.Duration

	// MaxRetries bounds retry attempts per fetch.
	MaxRetries int

	Logger *utils.Logger
}

// New creates a Converter with the default handler set wired to a stealth
// HTTP fetcher.
func New(opts Options) *Converter {
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}

	client := fetcher.NewClient(fetcher.ClientOptions{
		Timeout:    opts.Timeout,
		MaxRetries: opts.MaxRetries,
		Logger:     logger,
	})
	deps := handlers.NewDependencies(client, logger)

	return &Converter{
		registry: handlers.DefaultRegistry(deps),
		logger:   logger.WithComponent("converter"),
	}
}

// NewWithRegistry creates a Converter over a caller-supplied registry.
// Used by tests and by callers that need a custom handler set.
func NewWithRegistry(registry *handlers.Registry, logger *utils.Logger) *Converter {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Converter{
		registry: registry,
		logger:   logger.WithComponent("converter"),
	}
}

// Registry returns the underlying handler registry.
func (c *Converter) Registry() *handlers.Registry {
	return c.registry
}

// CanConvert reports whether any registered handler claims the URL. It
// never performs network requests.
func (c *Converter) CanConvert(url string) bool {
	return c.registry.Resolve(url) != nil
}

// Convert resolves the URL to a BibTeX entry string.
//
// An unclaimed URL returns domain.ErrUnsupportedURL. A claimed URL whose
// handler fails or produces an empty result returns
// domain.ErrExtractionFailed wrapping the handler error.
func (c *Converter) Convert(ctx context.Context, url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", domain.ErrInvalidURL
	}

	handler := c.registry.Resolve(url)
	if handler == nil {
		c.logger.Debug().Str("url", url).Msg("no handler claimed URL")
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedURL, url)
	}

	c.logger.Info().Str("url", url).Str("handler", handler.Name()).Msg("converting")

	entry, err := handler.Extract(ctx, url)
	if err != nil {
		c.logger.Warn().Err(err).Str("url", url).Str("handler", handler.Name()).Msg("extraction failed")
		return "", &domain.HandlerError{
			Handler: handler.Name(),
			URL:     url,
			Err:     fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err),
		}
	}

	entry = strings.TrimSpace(entry)
	if entry == "" {
		return "", &domain.HandlerError{
			Handler: handler.Name(),
			URL:     url,
			Err:     fmt.Errorf("%w: handler returned empty result", domain.ErrExtractionFailed),
		}
	}

	return entry, nil
}
