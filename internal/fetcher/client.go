package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/quantmind-br/url2bibtex-go/internal/domain"
	"github.com/quantmind-br/url2bibtex-go/internal/utils"
)

// httpDoer is the slice of tls_client.HttpClient the fetcher needs.
// Tests substitute a fake.
type httpDoer interface {
	Do(req *fhttp.Request) (*fhttp.Response, error)
}

// Client is the shared fetch layer. The underlying connection-pooled TLS
// client is created lazily on first use and reused for every request; the
// Client is safe for concurrent callers.
type Client struct {
	timeout    time.Duration
	maxRetries int
	retrier    *Retrier
	logger     *utils.Logger

	once    sync.Once
	doer    httpDoer
	doerErr error
}

// ClientOptions contains options for creating a Client
type ClientOptions struct {
	Timeout    time.Duration
	MaxRetries int
	Logger     *utils.Logger
}

// DefaultClientOptions returns default client options
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		Timeout:    15 * time.Second,
		MaxRetries: 3,
	}
}

// NewClient creates a new fetch client. No connections are opened until the
// first Fetch call.
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}

	return &Client{
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		retrier: NewRetrier(RetrierOptions{
			MaxRetries: opts.MaxRetries,
		}),
		logger: logger.WithComponent("fetcher"),
	}
}

// client returns the lazily-initialized TLS client.
func (c *Client) client() (httpDoer, error) {
	c.once.Do(func() {
		if c.doer != nil {
			return
		}
		tlsClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(),
			tls_client.WithTimeoutSeconds(int(c.timeout.Seconds())),
			tls_client.WithClientProfile(profiles.Chrome_131),
			tls_client.WithRandomTLSExtensionOrder(),
		)
		if err != nil {
			c.doerErr = fmt.Errorf("failed to create tls client: %w", err)
			return
		}
		c.doer = tlsClient
	})
	return c.doer, c.doerErr
}

// Fetch performs a GET with the retry policy. All failure paths come back as
// an error; the caller decides whether to collapse it to a no-result.
func (c *Client) Fetch(ctx context.Context, opts domain.FetchOptions) (*domain.FetchResult, error) {
	if opts.URL == "" {
		return nil, domain.ErrInvalidURL
	}

	retrier := c.retrier
	if opts.MaxRetries > 0 && opts.MaxRetries != c.maxRetries {
		retrier = NewRetrier(RetrierOptions{MaxRetries: opts.MaxRetries})
	}

	result, err := Do(ctx, retrier, func() (*domain.FetchResult, error) {
		return c.doRequest(ctx, opts)
	})
	if err != nil {
		c.logger.Debug().Err(err).Str("url", opts.URL).Msg("Fetch failed after retries")
		return nil, err
	}
	return result, nil
}

// doRequest performs a single HTTP request attempt.
func (c *Client) doRequest(ctx context.Context, opts domain.FetchOptions) (*domain.FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewFetchError(opts.URL, 0, err)
	}

	doer, err := c.client()
	if err != nil {
		return nil, err
	}

	targetURL := opts.URL
	if len(opts.Query) > 0 {
		targetURL = opts.URL + "?" + opts.Query.Encode()
	}

	req, err := fhttp.NewRequest(fhttp.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var headers map[string]string
	if opts.BrowserHeaders {
		headers = BrowserHeaders(opts.Accept)
	} else {
		headers = ToolHeaders(opts.Accept)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := doer.Do(req)
	if err != nil {
		return nil, domain.NewFetchError(opts.URL, 0, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == fhttp.StatusTooManyRequests:
		return nil, &domain.RetryableError{
			Err:        domain.NewFetchError(opts.URL, resp.StatusCode, domain.ErrRateLimited),
			RetryAfter: int(ParseRetryAfter(resp.Header.Get("Retry-After")).Seconds()),
		}
	case resp.StatusCode == fhttp.StatusForbidden:
		return nil, domain.NewFetchError(opts.URL, resp.StatusCode, domain.ErrForbidden)
	case resp.StatusCode >= 400:
		return nil, domain.NewFetchError(opts.URL, resp.StatusCode, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewFetchError(opts.URL, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err))
	}

	httpHeaders := make(http.Header, len(resp.Header))
	for k, v := range resp.Header {
		httpHeaders[k] = v
	}

	return &domain.FetchResult{
		StatusCode:  resp.StatusCode,
		Body:        body,
		Headers:     httpHeaders,
		ContentType: resp.Header.Get("Content-Type"),
		URL:         opts.URL,
	}, nil
}

// Close releases client resources.
func (c *Client) Close() error {
	// The TLS client holds no resources that need explicit teardown.
	return nil
}
