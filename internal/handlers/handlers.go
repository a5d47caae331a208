// Package handlers contains the per-source extraction handlers and the
// ordered registry that dispatches URLs to them.
package handlers

import (
	"github.com/quantmind-br/url2bibtex-go/internal/domain"
	"github.com/quantmind-br/url2bibtex-go/internal/utils"
)

// Dependencies contains shared dependencies for all handlers.
type Dependencies struct {
	Fetcher domain.Fetcher
	Logger  *utils.Logger
}

// NewDependencies wires handler dependencies, substituting a no-op logger
// when none is given.
func NewDependencies(fetcher domain.Fetcher, logger *utils.Logger) *Dependencies {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Dependencies{
		Fetcher: fetcher,
		Logger:  logger,
	}
}

// DefaultRegistry returns a registry with the built-in handlers in their
// canonical order: the URL-parameter shortcut first, source-specific
// handlers next, the HTML meta-tag fallback last.
func DefaultRegistry(deps *Dependencies) *Registry {
	r := NewRegistry()
	r.Register(NewURLParamHandler(deps))
	r.Register(NewArxivHandler(deps))
	r.Register(NewDOIHandler(deps))
	r.Register(NewBioRxivHandler(deps))
	r.Register(NewPIIHandler(deps))
	r.Register(NewCellHandler(deps))
	r.Register(NewOpenReviewHandler(deps))
	r.Register(NewSemanticScholarHandler(deps))
	r.Register(NewRepoHandler(deps))
	r.Register(NewIEEEHandler(deps))
	r.Register(NewACLAnthologyHandler(deps))
	r.Register(NewHTMLMetaHandler(deps))
	return r
}
