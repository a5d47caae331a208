package handlers

import (
	"context"
	"net/url"
	"strings"

	"github.com/quantmind-br/url2bibtex-go/internal/domain"
	"github.com/quantmind-br/url2bibtex-go/internal/utils"
)

// URLParamHandler resolves URLs that carry a ready-made BibTeX entry in a
// `bib` query parameter. No fetching happens; the parameter value is
// percent-decoded (once more on top of the query decoding, values are
// often double-encoded) and returned verbatim. Registered first so it
// wins over every network handler.
type URLParamHandler struct {
	logger *utils.Logger
}

// NewURLParamHandler creates a new url-parameter handler.
func NewURLParamHandler(deps *Dependencies) *URLParamHandler {
	return &URLParamHandler{logger: deps.Logger.WithHandler("urlparam")}
}

func (h *URLParamHandler) Name() string { return "urlparam" }

func (h *URLParamHandler) Description() string {
	return "URLs carrying a BibTeX entry in a bib= query parameter"
}

func (h *URLParamHandler) CanHandle(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	params, err := url.ParseQuery(parsed.RawQuery)
	if err != nil {
		return false
	}
	return params.Has("bib")
}

func (h *URLParamHandler) Extract(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", domain.ErrInvalidURL
	}
	params, err := url.ParseQuery(parsed.RawQuery)
	if err != nil {
		return "", domain.ErrInvalidURL
	}

	encoded := params.Get("bib")
	decoded, err := url.QueryUnescape(encoded)
	if err != nil {
		// already decoded once by ParseQuery, take it as-is
		decoded = encoded
	}

	decoded = strings.TrimSpace(decoded)
	if decoded == "" {
		return "", domain.ErrNoResult
	}
	return decoded, nil
}
