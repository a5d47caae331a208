package handlers

import (
	"context"
	"fmt"
	"regexp"

	"github.com/quantmind-br/url2bibtex-go/internal/domain"
	"github.com/quantmind-br/url2bibtex-go/internal/fetcher"
	"github.com/quantmind-br/url2bibtex-go/internal/utils"
)

var ieeePattern = regexp.MustCompile(`ieeexplore\.ieee\.org/(?:document|abstract/document)/(\d+)`)

// ieeeDOIPatterns locate a DOI inside an IEEE Xplore page, tried in order.
// The document pages embed the DOI in a citation_doi meta tag, a doi.org
// link, or the inline JSON metadata blob.
var ieeeDOIPatterns = []*regexp.Regexp{
	regexp.MustCompile(`<meta\s+name=["']citation_doi["']\s+content=["']([^"']+)["']`),
	regexp.MustCompile(`doi\.org/(10\.\d+/[^\s"'<>]+)`),
	regexp.MustCompile(`"doi"\s*:\s*"(10\.[^"]+)"`),
	regexp.MustCompile(`"xplore-pub-doi"\s*:\s*"(10\.[^"]+)"`),
}

// IEEEHandler converts IEEE Xplore document URLs. Xplore has no public
// metadata endpoint without an API key, so the handler scrapes the DOI out
// of the document page and delegates to DOI content negotiation.
type IEEEHandler struct {
	fetcher domain.Fetcher
	logger  *utils.Logger
	doi     *DOIHandler
}

// NewIEEEHandler creates a new IEEE Xplore handler.
func NewIEEEHandler(deps *Dependencies) *IEEEHandler {
	return &IEEEHandler{
		fetcher: deps.Fetcher,
		logger:  deps.Logger.WithHandler("ieee"),
		doi:     NewDOIHandler(deps),
	}
}

func (h *IEEEHandler) Name() string { return "ieee" }

func (h *IEEEHandler) Description() string {
	return "IEEE Xplore document pages (DOI discovery)"
}

func (h *IEEEHandler) CanHandle(url string) bool {
	return ieeePattern.MatchString(url)
}

func (h *IEEEHandler) Extract(ctx context.Context, rawURL string) (string, error) {
	m := ieeePattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", domain.ErrNoResult
	}
	documentID := m[1]

	res, err := h.fetcher.Fetch(ctx, domain.FetchOptions{
		URL:            "https://ieeexplore.ieee.org/document/" + documentID,
		Accept:         domain.AcceptHTML,
		BrowserHeaders: true,
	})
	if err != nil {
		h.logger.Debug().Err(err).Str("document", documentID).Msg("page fetch failed")
		return "", fmt.Errorf("%w: %v", domain.ErrNoResult, err)
	}

	page := fetcher.DecodeText(res.Body, res.ContentType)
	for _, pattern := range ieeeDOIPatterns {
		if m := pattern.FindStringSubmatch(page); m != nil {
			h.logger.Debug().Str("doi", m[1]).Msg("found DOI in page")
			return h.doi.ExtractDOI(ctx, m[1])
		}
	}

	return "", fmt.Errorf("%w: no DOI found in IEEE page", domain.ErrNoResult)
}
