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

const doiResolver = "https://doi.org"

// doiPattern matches doi.org URLs, bare doi: identifiers, and publisher URLs
// with a /doi/ path segment, capturing the DOI itself.
var doiPattern = regexp.MustCompile(`(?:(?:https?://)?(?:dx\.)?doi\.org/|doi:|/doi(?:/[a-z]+)*/)(10\.\d+/[^\s?#]+)`)

// DOIHandler resolves DOIs to BibTeX via doi.org content negotiation: an
// Accept header of application/x-bibtex makes the resolver return the entry
// directly. Several other handlers delegate here once they have discovered
// a DOI.
//
// Supported URL shapes:
//   - https://doi.org/10.1000/xyz123
//   - http://dx.doi.org/10.1000/xyz123
//   - doi:10.1000/xyz123
//   - https://pubs.acs.org/doi/10.1021/acs.chemrestox.5c00033
//   - https://journals.sagepub.com/doi/full/10.1177/02783649241281508
type DOIHandler struct {
	fetcher domain.Fetcher
	logger  *utils.Logger
}

// NewDOIHandler creates a new DOI handler.
func NewDOIHandler(deps *Dependencies) *DOIHandler {
	return &DOIHandler{
		fetcher: deps.Fetcher,
		logger:  deps.Logger.WithHandler("doi"),
	}
}

func (h *DOIHandler) Name() string { return "doi" }

func (h *DOIHandler) Description() string { return "DOI resolution (universal)" }

func (h *DOIHandler) CanHandle(url string) bool {
	return doiPattern.MatchString(url)
}

func (h *DOIHandler) Extract(ctx context.Context, rawURL string) (string, error) {
	match := doiPattern.FindStringSubmatch(rawURL)
	if match == nil {
		return "", domain.ErrNoResult
	}
	return h.ExtractDOI(ctx, match[1])
}

// ExtractDOI fetches BibTeX for a bare DOI. Delegating handlers call this
// directly once they hold a DOI.
func (h *DOIHandler) ExtractDOI(ctx context.Context, doi string) (string, error) {
	res, err := h.fetcher.Fetch(ctx, domain.FetchOptions{
		URL:    doiResolver + "/" + doi,
		Accept: domain.AcceptBibTeX,
	})
	if err != nil {
		h.logger.Debug().Err(err).Str("doi", doi).Msg("DOI resolution failed")
		return "", fmt.Errorf("%w: %v", domain.ErrNoResult, err)
	}

	entry := strings.TrimSpace(fetcher.DecodeText(res.Body, res.ContentType))
	if !bibtex.IsEntry(entry) {
		return "", domain.ErrNoResult
	}
	return entry, nil
}
