package handlers

import (
	"context"
	"regexp"

	"github.com/quantmind-br/url2bibtex-go/internal/domain"
)

// biorxivPattern captures the 10.1101/... DOI embedded in bioRxiv content
// URLs, ignoring the version suffix.
var biorxivPattern = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?biorxiv\.org/content/(10\.1101/[\d.]+)(?:v\d+)?`)

// BioRxivHandler converts bioRxiv preprint URLs. The DOI is embedded in the
// URL itself, so extraction is pure delegation to the DOI handler.
//
// Supported URL shapes:
//   - https://www.biorxiv.org/content/10.1101/2023.04.25.537981v2
//   - http://biorxiv.org/content/10.1101/2021.01.01.123456v3
type BioRxivHandler struct {
	doi *DOIHandler
}

// NewBioRxivHandler creates a new bioRxiv handler owning its DOI delegate.
func NewBioRxivHandler(deps *Dependencies) *BioRxivHandler {
	return &BioRxivHandler{doi: NewDOIHandler(deps)}
}

func (h *BioRxivHandler) Name() string { return "biorxiv" }

func (h *BioRxivHandler) Description() string { return "bioRxiv preprint papers" }

func (h *BioRxivHandler) CanHandle(url string) bool {
	return biorxivPattern.MatchString(url)
}

func (h *BioRxivHandler) Extract(ctx context.Context, rawURL string) (string, error) {
	match := biorxivPattern.FindStringSubmatch(rawURL)
	if match == nil {
		return "", domain.ErrNoResult
	}
	return h.doi.ExtractDOI(ctx, match[1])
}
