package handlers

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/quantmind-br/url2bibtex-go/internal/bibtex"
	"github.com/quantmind-br/url2bibtex-go/internal/domain"
	"github.com/quantmind-br/url2bibtex-go/internal/fetcher"
	"github.com/quantmind-br/url2bibtex-go/internal/utils"
)

// metaTagPattern matches <meta name|property="..." content="..."> tags.
// A regex scan is deliberate here: the fallback only needs flat attribute
// pairs, and publisher pages are frequently malformed enough to trip
// strict parsers.
var metaTagPattern = regexp.MustCompile(`(?i)<meta\s+(?:name|property)=["']([^"']+)["']\s+content=["']([^"']+)["']`)

// pageMetadata accumulates citation fields scanned out of meta tags.
type pageMetadata struct {
	Title     string
	Authors   []string
	Year      string
	Journal   string
	Volume    string
	Issue     string
	Pages     string
	DOI       string
	Abstract  string
	Publisher string
	ISBN      string
	ISSN      string
}

// HTMLMetaHandler is the generic fallback. It accepts any http(s) URL and
// scans the page for citation metadata in meta tags: the Google Scholar
// citation_* vocabulary, Dublin Core dc.*, and Open Graph og:*. It must be
// registered last so that every specific handler gets first claim.
type HTMLMetaHandler struct {
	fetcher domain.Fetcher
	logger  *utils.Logger

	// now is injectable so tests can pin the default year
	now func() time.Time
}

// NewHTMLMetaHandler creates the fallback handler.
func NewHTMLMetaHandler(deps *Dependencies) *HTMLMetaHandler {
	return &HTMLMetaHandler{
		fetcher: deps.Fetcher,
		logger:  deps.Logger.WithHandler("htmlmeta"),
		now:     time.Now,
	}
}

func (h *HTMLMetaHandler) Name() string { return "htmlmeta" }

func (h *HTMLMetaHandler) Description() string {
	return "any page with citation_*/DC.*/og:* meta tags (fallback)"
}

func (h *HTMLMetaHandler) CanHandle(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

func (h *HTMLMetaHandler) Extract(ctx context.Context, rawURL string) (string, error) {
	res, err := h.fetcher.Fetch(ctx, domain.FetchOptions{
		URL:            rawURL,
		Accept:         domain.AcceptHTML,
		BrowserHeaders: true,
	})
	if err != nil {
		h.logger.Debug().Err(err).Msg("page fetch failed")
		return "", fmt.Errorf("%w: %v", domain.ErrNoResult, err)
	}

	meta := parseMetaTags(fetcher.DecodeText(res.Body, res.ContentType))
	if meta.Title == "" {
		return "", fmt.Errorf("%w: no citation title in page metadata", domain.ErrNoResult)
	}

	return h.render(meta, rawURL), nil
}

// parseMetaTags scans the page for the recognized meta-tag vocabulary.
func parseMetaTags(html string) pageMetadata {
	var meta pageMetadata

	for _, m := range metaTagPattern.FindAllStringSubmatch(html, -1) {
		name := strings.ToLower(m[1])
		content := strings.TrimSpace(m[2])
		if content == "" {
			continue
		}

		switch name {
		case "citation_title", "dc.title":
			meta.Title = content
		case "citation_author", "dc.creator", "author":
			meta.Authors = append(meta.Authors, content)
		case "citation_publication_date", "citation_date", "dc.date", "article:published_time":
			meta.Year = bibtex.Year(content)
		case "citation_journal_title", "citation_conference_title", "dc.source":
			meta.Journal = content
		case "citation_volume":
			meta.Volume = content
		case "citation_issue":
			meta.Issue = content
		case "citation_firstpage":
			meta.Pages = content
		case "citation_lastpage":
			if meta.Pages != "" {
				meta.Pages += "--" + content
			}
		case "citation_doi", "dc.identifier.doi":
			doi := strings.TrimPrefix(content, "https://doi.org/")
			doi = strings.TrimPrefix(doi, "http://doi.org/")
			meta.DOI = doi
		case "citation_abstract", "dc.description", "og:description":
			if meta.Abstract == "" {
				meta.Abstract = content
			}
		case "citation_publisher", "dc.publisher":
			meta.Publisher = content
		case "citation_isbn":
			meta.ISBN = content
		case "citation_issn":
			meta.ISSN = content
		}
	}

	return meta
}

func (h *HTMLMetaHandler) render(meta pageMetadata, pageURL string) string {
	entryType := bibtex.TypeMisc
	if meta.Journal != "" {
		entryType = bibtex.TypeArticle
	}

	year := meta.Year
	if year == "" {
		year = strconv.Itoa(h.now().Year())
	}

	authorsStr := bibtex.JoinAuthors(meta.Authors)
	if authorsStr == "" {
		authorsStr = "Unknown Author"
	}

	key := bibtex.CiteKey(meta.Authors, year, "web")

	return bibtex.NewEntry(entryType, key).
		Add("title", meta.Title).
		Add("author", authorsStr).
		Add("year", year).
		Add("journal", meta.Journal).
		Add("volume", meta.Volume).
		Add("number", meta.Issue).
		Add("pages", meta.Pages).
		Add("doi", meta.DOI).
		Add("publisher", meta.Publisher).
		Add("issn", meta.ISSN).
		Add("isbn", meta.ISBN).
		Add("url", pageURL).
		String()
}
