package fetcher

import (
	"context"
	"io"
	"strings"
	"testing"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/url2bibtex-go/internal/domain"
)

// fakeDoer serves canned responses and records requests.
type fakeDoer struct {
	status   int
	body     string
	header   fhttp.Header
	requests []*fhttp.Request
}

func (f *fakeDoer) Do(req *fhttp.Request) (*fhttp.Response, error) {
	f.requests = append(f.requests, req)
	header := f.header
	if header == nil {
		header = fhttp.Header{}
	}
	return &fhttp.Response{
		StatusCode: f.status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(f.body)),
	}, nil
}

func newTestClient(doer *fakeDoer) *Client {
	c := NewClient(DefaultClientOptions())
	c.doer = doer
	return c
}

func TestClientFetchSuccess(t *testing.T) {
	doer := &fakeDoer{
		status: 200,
		body:   `{"ok":true}`,
		header: fhttp.Header{"Content-Type": {"application/json"}},
	}
	c := newTestClient(doer)

	res, err := c.Fetch(context.Background(), domain.FetchOptions{
		URL:    "https://api.example.com/thing",
		Accept: domain.AcceptJSON,
	})
	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, `{"ok":true}`, string(res.Body))
	assert.Equal(t, "application/json", res.ContentType)

	require.Len(t, doer.requests, 1)
	req := doer.requests[0]
	assert.Equal(t, domain.AcceptJSON, req.Header.Get("Accept"))
	// API requests carry the tool identifier, not a browser UA
	assert.Equal(t, ToolUserAgent, req.Header.Get("User-Agent"))
}

func TestClientFetchBuildsQueryString(t *testing.T) {
	doer := &fakeDoer{status: 200, body: "ok"}
	c := newTestClient(doer)

	opts := domain.FetchOptions{URL: "https://api.example.com/search"}
	opts.Query = map[string][]string{"q": {"hello world"}}

	_, err := c.Fetch(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, doer.requests, 1)
	assert.Equal(t, "q=hello+world", doer.requests[0].URL.RawQuery)
}

func TestClientFetchBrowserHeaders(t *testing.T) {
	doer := &fakeDoer{status: 200, body: "<html></html>"}
	c := newTestClient(doer)

	_, err := c.Fetch(context.Background(), domain.FetchOptions{
		URL:            "https://publisher.example.com/article",
		Accept:         domain.AcceptHTML,
		BrowserHeaders: true,
	})
	require.NoError(t, err)
	require.Len(t, doer.requests, 1)
	ua := doer.requests[0].Header.Get("User-Agent")
	assert.Contains(t, ua, "Mozilla/5.0")
}

func TestClientFetchClientErrorIsPermanent(t *testing.T) {
	doer := &fakeDoer{status: 404, body: "not found"}
	c := newTestClient(doer)

	_, err := c.Fetch(context.Background(), domain.FetchOptions{URL: "https://example.com/missing"})
	require.Error(t, err)
	assert.Equal(t, 404, domain.StatusCode(err))
	// A 404 is not retried
	assert.Len(t, doer.requests, 1)
}

func TestClientFetchEmptyURL(t *testing.T) {
	c := newTestClient(&fakeDoer{status: 200})
	_, err := c.Fetch(context.Background(), domain.FetchOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidURL)
}
