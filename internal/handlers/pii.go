package handlers

import (
	"context"
	"fmt"
	"net/url"
	"regexp"

	"github.com/quantmind-br/url2bibtex-go/internal/domain"
	"github.com/quantmind-br/url2bibtex-go/internal/utils"
)

const crossrefAPI = "https://api.crossref.org/works"

// piiPattern matches ScienceDirect article URLs and captures the Publisher
// Item Identifier.
var piiPattern = regexp.MustCompile(`sciencedirect\.com/science/article/(?:abs/)?pii/([A-Z0-9]+)`)

// PIIHandler converts ScienceDirect URLs carrying a PII (Publisher Item
// Identifier). The PII is not directly resolvable, so the handler queries
// the CrossRef works API to discover the canonical DOI and then delegates
// to the DOI handler.
//
// Supported URL shapes:
//   - https://www.sciencedirect.com/science/article/pii/S1367593121001204
//   - https://www.sciencedirect.com/science/article/abs/pii/S1367593121001204
type PIIHandler struct {
	fetcher domain.Fetcher
	logger  *utils.Logger
	doi     *DOIHandler
}

// NewPIIHandler creates a new PII handler owning its DOI delegate.
func NewPIIHandler(deps *Dependencies) *PIIHandler {
	return &PIIHandler{
		fetcher: deps.Fetcher,
		logger:  deps.Logger.WithHandler("pii"),
		doi:     NewDOIHandler(deps),
	}
}

func (h *PIIHandler) Name() string { return "pii" }

func (h *PIIHandler) Description() string { return "ScienceDirect PII articles (via CrossRef)" }

func (h *PIIHandler) CanHandle(url string) bool {
	return piiPattern.MatchString(url)
}

func (h *PIIHandler) Extract(ctx context.Context, rawURL string) (string, error) {
	match := piiPattern.FindStringSubmatch(rawURL)
	if match == nil {
		return "", domain.ErrNoResult
	}
	pii := match[1]

	doi, err := h.lookupDOI(ctx, pii)
	if err != nil {
		return "", err
	}
	return h.doi.ExtractDOI(ctx, doi)
}

// ExtractPII resolves a bare, normalized PII. The Cell handler delegates
// here after reformatting its identifier.
func (h *PIIHandler) ExtractPII(ctx context.Context, pii string) (string, error) {
	doi, err := h.lookupDOI(ctx, pii)
	if err != nil {
		return "", err
	}
	return h.doi.ExtractDOI(ctx, doi)
}

// crossrefWorks models the subset of the CrossRef works response we read.
type crossrefWorks struct {
	Message struct {
		Items []struct {
			DOI string `json:"DOI"`
		} `json:"items"`
	} `json:"message"`
}

func (h *PIIHandler) lookupDOI(ctx context.Context, pii string) (string, error) {
	res, err := h.fetcher.Fetch(ctx, domain.FetchOptions{
		URL:    crossrefAPI,
		Query:  url.Values{"query": {pii}},
		Accept: domain.AcceptJSON,
	})
	if err != nil {
		h.logger.Debug().Err(err).Str("pii", pii).Msg("CrossRef query failed")
		return "", fmt.Errorf("%w: %v", domain.ErrNoResult, err)
	}

	var works crossrefWorks
	if err := res.JSON(&works); err != nil {
		h.logger.Debug().Err(err).Msg("Failed to parse CrossRef response")
		return "", fmt.Errorf("%w: %v", domain.ErrNoResult, err)
	}
	if len(works.Message.Items) == 0 || works.Message.Items[0].DOI == "" {
		return "", domain.ErrNoResult
	}
	return works.Message.Items[0].DOI, nil
}
