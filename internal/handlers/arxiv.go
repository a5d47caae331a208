package handlers

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/quantmind-br/url2bibtex-go/internal/bibtex"
	"github.com/quantmind-br/url2bibtex-go/internal/domain"
	"github.com/quantmind-br/url2bibtex-go/internal/utils"
)

const arxivAPI = "http://export.arxiv.org/api/query"

// arxivPattern matches abs/pdf/html arXiv URLs and captures the paper ID.
var arxivPattern = regexp.MustCompile(`arxiv\.org/(?:abs|pdf|html)/(\d+\.\d+)(?:v\d+)?(?:\.pdf)?`)

// ArxivHandler converts arXiv URLs via the arXiv Atom API.
//
// Supported URL shapes:
//   - https://arxiv.org/abs/2103.15348
//   - https://arxiv.org/pdf/2103.15348.pdf
//   - http://arxiv.org/html/2103.15348v1
type ArxivHandler struct {
	fetcher domain.Fetcher
	logger  *utils.Logger
}

// NewArxivHandler creates a new arXiv handler.
func NewArxivHandler(deps *Dependencies) *ArxivHandler {
	return &ArxivHandler{
		fetcher: deps.Fetcher,
		logger:  deps.Logger.WithHandler("arxiv"),
	}
}

func (h *ArxivHandler) Name() string { return "arxiv" }

func (h *ArxivHandler) Description() string { return "arXiv preprint papers" }

func (h *ArxivHandler) CanHandle(url string) bool {
	return arxivPattern.MatchString(url)
}

// atomFeed models the subset of the arXiv Atom response we read.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     string `xml:"title"`
	Published string `xml:"published"`
	Authors   []struct {
		Name string `xml:"name"`
	} `xml:"author"`
	PrimaryCategory struct {
		Term string `xml:"term,attr"`
	} `xml:"primary_category"`
}

func (h *ArxivHandler) Extract(ctx context.Context, rawURL string) (string, error) {
	match := arxivPattern.FindStringSubmatch(rawURL)
	if match == nil {
		return "", domain.ErrNoResult
	}
	arxivID := match[1]

	res, err := h.fetcher.Fetch(ctx, domain.FetchOptions{
		URL:    arxivAPI,
		Query:  url.Values{"id_list": {arxivID}},
		Accept: domain.AcceptAtom,
	})
	if err != nil {
		h.logger.Debug().Err(err).Str("id", arxivID).Msg("arXiv API fetch failed")
		return "", fmt.Errorf("%w: %v", domain.ErrNoResult, err)
	}

	var feed atomFeed
	if err := xml.Unmarshal(res.Body, &feed); err != nil {
		h.logger.Debug().Err(err).Msg("Failed to parse arXiv Atom response")
		return "", fmt.Errorf("%w: %v", domain.ErrNoResult, err)
	}
	if len(feed.Entries) == 0 {
		return "", domain.ErrNoResult
	}
	entry := feed.Entries[0]

	title := strings.Join(strings.Fields(entry.Title), " ")
	if title == "" {
		return "", domain.ErrNoResult
	}

	var authors []string
	for _, a := range entry.Authors {
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	year := bibtex.Year(entry.Published)
	key := bibtex.CiteKey(authors, year, "arxiv")

	return bibtex.NewEntry(bibtex.TypeArticle, key).
		Add("title", title).
		Add("author", bibtex.JoinAuthors(authors)).
		Add("year", year).
		Add("journal", "arXiv preprint arXiv:"+arxivID).
		Add("eprint", arxivID).
		Add("archivePrefix", "arXiv").
		Add("primaryClass", entry.PrimaryCategory.Term).
		Add("url", "https://arxiv.org/abs/"+arxivID).
		String(), nil
}
