package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/url2bibtex-go/internal/config"
	"github.com/quantmind-br/url2bibtex-go/internal/converter"
	"github.com/quantmind-br/url2bibtex-go/internal/domain"
	"github.com/quantmind-br/url2bibtex-go/internal/handlers"
)

type stubHandler struct {
	name   string
	prefix string
	result string
	err    error
}

func (s *stubHandler) Name() string              { return s.name }
func (s *stubHandler) Description() string       { return "stub " + s.name }
func (s *stubHandler) CanHandle(url string) bool { return strings.Contains(url, s.prefix) }
func (s *stubHandler) Extract(ctx context.Context, url string) (string, error) {
	return s.result, s.err
}

func testServer(hs ...domain.Handler) *Server {
	r := handlers.NewRegistry()
	for _, h := range hs {
		r.Register(h)
	}
	conv := converter.NewWithRegistry(r, nil)
	cfg := config.Default().Server
	return New(cfg, conv, nil)
}

func doRequest(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := testServer(&stubHandler{name: "a", prefix: "a.com"}, &stubHandler{name: "b", prefix: "b.com"})

	rec := doRequest(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status   string `json:"status"`
		Handlers int    `json:"handlers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Handlers)
}

func TestHandlersEndpoint(t *testing.T) {
	s := testServer(&stubHandler{name: "a", prefix: "a.com"})

	rec := doRequest(t, s, http.MethodGet, "/handlers", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Handlers []struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"handlers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Handlers, 1)
	assert.Equal(t, "a", resp.Handlers[0].Name)
}

func TestRootEndpoint(t *testing.T) {
	s := testServer()
	rec := doRequest(t, s, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/convert")
}

func TestConvertPost(t *testing.T) {
	s := testServer(&stubHandler{name: "a", prefix: "a.com", result: "@misc{k,\n  title = {T}\n}"})

	rec := doRequest(t, s, http.MethodPost, "/convert", `{"url":"https://a.com/paper"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		URL     string `json:"url"`
		BibTeX  string `json:"bibtex"`
		Success bool   `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "https://a.com/paper", resp.URL)
	assert.Contains(t, resp.BibTeX, "@misc{k,")
}

func TestConvertGet(t *testing.T) {
	s := testServer(&stubHandler{name: "a", prefix: "a.com", result: "@misc{k}"})

	rec := doRequest(t, s, http.MethodGet, "/convert?url=https%3A%2F%2Fa.com%2Fpaper", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "@misc{k}")
}

func TestConvertUnsupportedURLIs400(t *testing.T) {
	s := testServer(&stubHandler{name: "a", prefix: "a.com"})

	rec := doRequest(t, s, http.MethodPost, "/convert", `{"url":"https://b.com/paper"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestConvertExtractionFailureIs500(t *testing.T) {
	s := testServer(&stubHandler{name: "a", prefix: "a.com", err: domain.ErrNoResult})

	rec := doRequest(t, s, http.MethodPost, "/convert", `{"url":"https://a.com/paper"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestConvertMissingURLIs400(t *testing.T) {
	s := testServer()

	rec := doRequest(t, s, http.MethodPost, "/convert", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/convert", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConvertInvalidBodyIs400(t *testing.T) {
	s := testServer()
	rec := doRequest(t, s, http.MethodPost, "/convert", "not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
