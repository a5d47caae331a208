package handlers

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/quantmind-br/url2bibtex-go/internal/bibtex"
	"github.com/quantmind-br/url2bibtex-go/internal/domain"
	"github.com/quantmind-br/url2bibtex-go/internal/fetcher"
	"github.com/quantmind-br/url2bibtex-go/internal/utils"
)

var aclPattern = regexp.MustCompile(`(?:aclanthology\.org|aclweb\.org/anthology)/([A-Za-z0-9.-]+?)/?(?:\.bib)?$`)

// ACLAnthologyHandler converts ACL Anthology paper URLs. The anthology
// serves a ready-made BibTeX file for every paper at <paper-url>.bib, so
// extraction is a single fetch with no assembly needed.
type ACLAnthologyHandler struct {
	fetcher domain.Fetcher
	logger  *utils.Logger
}

// NewACLAnthologyHandler creates a new ACL Anthology handler.
func NewACLAnthologyHandler(deps *Dependencies) *ACLAnthologyHandler {
	return &ACLAnthologyHandler{
		fetcher: deps.Fetcher,
		logger:  deps.Logger.WithHandler("aclanthology"),
	}
}

func (h *ACLAnthologyHandler) Name() string { return "aclanthology" }

func (h *ACLAnthologyHandler) Description() string {
	return "ACL Anthology papers (native .bib endpoint)"
}

func (h *ACLAnthologyHandler) CanHandle(url string) bool {
	return aclPattern.MatchString(url)
}

func (h *ACLAnthologyHandler) Extract(ctx context.Context, rawURL string) (string, error) {
	m := aclPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", domain.ErrNoResult
	}
	paperID := m[1]
	bibURL := "https://aclanthology.org/" + paperID + ".bib"

	res, err := h.fetcher.Fetch(ctx, domain.FetchOptions{
		URL:            bibURL,
		Accept:         domain.AcceptText,
		BrowserHeaders: true,
	})
	if err != nil {
		h.logger.Debug().Err(err).Str("paper", paperID).Msg("bib fetch failed")
		return "", fmt.Errorf("%w: %v", domain.ErrNoResult, err)
	}

	entry := strings.TrimSpace(fetcher.DecodeText(res.Body, res.ContentType))
	if !bibtex.IsEntry(entry) {
		return "", fmt.Errorf("%w: response is not a BibTeX entry", domain.ErrNoResult)
	}
	return entry, nil
}
