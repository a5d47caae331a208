package handlers

import (
	"context"
	"regexp"
	"strings"

	"github.com/quantmind-br/url2bibtex-go/internal/domain"
)

// cellPattern matches Cell Press fulltext URLs and captures the formatted
// PII, e.g. S0092-8674(25)00927-4.
var cellPattern = regexp.MustCompile(`cell\.com/[^/]+/fulltext/(S\d{4}-\d{4}\(\d{2}\)\d{5}-\d)`)

// CellHandler converts Cell Press URLs. Cell's URLs embed the PII in its
// display form with hyphens and parentheses; the handler normalizes it and
// delegates to the PII handler.
//
// Supported URL shapes:
//   - https://www.cell.com/cell/fulltext/S0092-8674(25)00927-4
//   - https://www.cell.com/molecular-cell/fulltext/S1097-2765(24)00123-4
type CellHandler struct {
	pii *PIIHandler
}

// NewCellHandler creates a new Cell Press handler owning its PII delegate.
func NewCellHandler(deps *Dependencies) *CellHandler {
	return &CellHandler{pii: NewPIIHandler(deps)}
}

func (h *CellHandler) Name() string { return "cell" }

func (h *CellHandler) Description() string { return "Cell Press fulltext articles" }

func (h *CellHandler) CanHandle(url string) bool {
	return cellPattern.MatchString(url)
}

func (h *CellHandler) Extract(ctx context.Context, rawURL string) (string, error) {
	match := cellPattern.FindStringSubmatch(rawURL)
	if match == nil {
		return "", domain.ErrNoResult
	}
	return h.pii.ExtractPII(ctx, normalizePII(match[1]))
}

// normalizePII strips the display punctuation from a formatted PII:
// S0092-8674(25)00927-4 becomes S0092867425009274.
func normalizePII(formatted string) string {
	replacer := strings.NewReplacer("(", "", ")", "", "-", "")
	return replacer.Replace(formatted)
}
