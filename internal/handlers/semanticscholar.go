package handlers

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/quantmind-br/url2bibtex-go/internal/bibtex"
	"github.com/quantmind-br/url2bibtex-go/internal/domain"
	"github.com/quantmind-br/url2bibtex-go/internal/utils"
)

const (
	semanticScholarAPI = "https://api.semanticscholar.org/graph/v1/paper"

	// s2Fields is the field list requested from the graph API.
	s2Fields = "title,authors,year,venue,publicationVenue,externalIds,publicationTypes,journal,citationCount"
)

// semanticScholarPattern matches paper pages and captures the hex paper ID.
var semanticScholarPattern = regexp.MustCompile(`semanticscholar\.org/paper/[^/]+/([a-f0-9]+)`)

// SemanticScholarHandler converts Semantic Scholar paper URLs via the graph
// API. When the paper carries a DOI the handler delegates entirely to the
// DOI handler, since doi.org returns the publisher's authoritative BibTeX;
// manual rendering is only a fallback.
//
// Supported URL shape:
//   - https://www.semanticscholar.org/paper/{title-slug}/{paper-id}
type SemanticScholarHandler struct {
	fetcher domain.Fetcher
	logger  *utils.Logger
	doi     *DOIHandler
}

// NewSemanticScholarHandler creates a new Semantic Scholar handler owning
// its DOI delegate.
func NewSemanticScholarHandler(deps *Dependencies) *SemanticScholarHandler {
	return &SemanticScholarHandler{
		fetcher: deps.Fetcher,
		logger:  deps.Logger.WithHandler("semanticscholar"),
		doi:     NewDOIHandler(deps),
	}
}

func (h *SemanticScholarHandler) Name() string { return "semanticscholar" }

func (h *SemanticScholarHandler) Description() string { return "Semantic Scholar academic papers" }

func (h *SemanticScholarHandler) CanHandle(url string) bool {
	return semanticScholarPattern.MatchString(url)
}

// s2Paper models the subset of the graph API response we read.
type s2Paper struct {
	Title   string `json:"title"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Year             *int   `json:"year"`
	Venue            string `json:"venue"`
	PublicationVenue *struct {
		Name string `json:"name"`
	} `json:"publicationVenue"`
	Journal *struct {
		Name string `json:"name"`
	} `json:"journal"`
	ExternalIDs struct {
		DOI   string `json:"DOI"`
		ArXiv string `json:"ArXiv"`
	} `json:"externalIds"`
	PublicationTypes []string `json:"publicationTypes"`
}

func (h *SemanticScholarHandler) Extract(ctx context.Context, rawURL string) (string, error) {
	match := semanticScholarPattern.FindStringSubmatch(rawURL)
	if match == nil {
		return "", domain.ErrNoResult
	}
	paperID := match[1]

	res, err := h.fetcher.Fetch(ctx, domain.FetchOptions{
		URL:    semanticScholarAPI + "/" + paperID,
		Query:  url.Values{"fields": {s2Fields}},
		Accept: domain.AcceptJSON,
	})
	if err != nil {
		h.logger.Debug().Err(err).Str("id", paperID).Msg("Semantic Scholar API fetch failed")
		return "", fmt.Errorf("%w: %v", domain.ErrNoResult, err)
	}

	var paper s2Paper
	if err := res.JSON(&paper); err != nil {
		h.logger.Debug().Err(err).Msg("Failed to parse Semantic Scholar response")
		return "", fmt.Errorf("%w: %v", domain.ErrNoResult, err)
	}

	doi := paper.ExternalIDs.DOI
	if doi != "" {
		if entry, err := h.doi.ExtractDOI(ctx, doi); err == nil {
			return entry, nil
		}
		h.logger.Debug().Str("doi", doi).Msg("DOI delegation failed, rendering manually")
	}

	return h.render(&paper, paperID, doi)
}

// render constructs an entry from graph API fields when DOI delegation is
// unavailable or failed.
func (h *SemanticScholarHandler) render(paper *s2Paper, paperID, doi string) (string, error) {
	title := strings.Join(strings.Fields(paper.Title), " ")
	if title == "" {
		return "", domain.ErrNoResult
	}

	var authors []string
	for _, a := range paper.Authors {
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	var year string
	if paper.Year != nil {
		year = strconv.Itoa(*paper.Year)
	}

	venue := paper.Venue
	if venue == "" && paper.PublicationVenue != nil {
		venue = paper.PublicationVenue.Name
	}
	var journal string
	if paper.Journal != nil {
		journal = paper.Journal.Name
	}

	entryType := bibtex.TypeArticle
	for _, t := range paper.PublicationTypes {
		switch t {
		case "Conference":
			entryType = bibtex.TypeInProceedings
		case "Book":
			if entryType == bibtex.TypeArticle {
				entryType = bibtex.TypeBook
			}
		}
	}

	key := bibtex.CiteKey(authors, year, "semanticscholar")
	entry := bibtex.NewEntry(entryType, key).
		Add("title", title).
		Add("author", bibtex.JoinAuthors(authors)).
		Add("year", year)

	switch {
	case entryType == bibtex.TypeInProceedings && venue != "":
		entry.Add("booktitle", venue)
	case entryType == bibtex.TypeArticle && journal != "":
		entry.Add("journal", journal)
	case entryType == bibtex.TypeArticle:
		entry.Add("journal", venue)
	}

	entry.Add("doi", doi)
	if paper.ExternalIDs.ArXiv != "" {
		entry.Add("eprint", paper.ExternalIDs.ArXiv)
		entry.Add("archivePrefix", "arXiv")
	}
	if doi != "" {
		entry.Add("url", "https://doi.org/"+doi)
	} else {
		entry.Add("url", "https://www.semanticscholar.org/paper/"+paperID)
	}

	return entry.String(), nil
}
