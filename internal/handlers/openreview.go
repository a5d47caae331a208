package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/quantmind-br/url2bibtex-go/internal/bibtex"
	"github.com/quantmind-br/url2bibtex-go/internal/domain"
	"github.com/quantmind-br/url2bibtex-go/internal/utils"
)

const openreviewAPI = "https://api.openreview.net/notes"

// openreviewPattern matches forum/pdf URLs and captures the submission ID.
var openreviewPattern = regexp.MustCompile(`openreview\.net/(?:forum|pdf)\?id=([a-zA-Z0-9_-]+)`)

// invitationVenuePattern recovers the venue acronym from an invitation
// string like "ICLR.cc/2021/Conference/-/Blind_Submission".
var invitationVenuePattern = regexp.MustCompile(`([^/]+)/\d{4}/Conference`)

// OpenReviewHandler converts OpenReview submission URLs. The forum page
// embeds a pre-rendered BibTeX blob as a percent-encoded attribute value;
// scraping it is preferred because it matches what the site itself shows.
// When the blob is absent the handler falls back to the notes API and
// renders the entry from JSON fields.
//
// Supported URL shapes:
//   - https://openreview.net/forum?id=PAPER_ID
//   - https://openreview.net/pdf?id=PAPER_ID
type OpenReviewHandler struct {
	fetcher domain.Fetcher
	logger  *utils.Logger
}

// NewOpenReviewHandler creates a new OpenReview handler.
func NewOpenReviewHandler(deps *Dependencies) *OpenReviewHandler {
	return &OpenReviewHandler{
		fetcher: deps.Fetcher,
		logger:  deps.Logger.WithHandler("openreview"),
	}
}

func (h *OpenReviewHandler) Name() string { return "openreview" }

func (h *OpenReviewHandler) Description() string { return "OpenReview conference submissions" }

func (h *OpenReviewHandler) CanHandle(url string) bool {
	return openreviewPattern.MatchString(url)
}

func (h *OpenReviewHandler) Extract(ctx context.Context, rawURL string) (string, error) {
	match := openreviewPattern.FindStringSubmatch(rawURL)
	if match == nil {
		return "", domain.ErrNoResult
	}
	paperID := match[1]

	if entry, err := h.scrapeForum(ctx, paperID); err == nil {
		return entry, nil
	}
	return h.fromAPI(ctx, paperID)
}

// scrapeForum pulls the pre-rendered BibTeX blob out of the forum HTML.
func (h *OpenReviewHandler) scrapeForum(ctx context.Context, paperID string) (string, error) {
	res, err := h.fetcher.Fetch(ctx, domain.FetchOptions{
		URL:            "https://openreview.net/forum",
		Query:          url.Values{"id": {paperID}},
		Accept:         domain.AcceptHTML,
		BrowserHeaders: true,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrNoResult, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrNoResult, err)
	}

	encoded, ok := doc.Find("[data-bibtex]").First().Attr("data-bibtex")
	if !ok {
		return "", domain.ErrNoResult
	}
	decoded, err := url.QueryUnescape(encoded)
	if err != nil {
		h.logger.Debug().Err(err).Msg("Failed to decode embedded citation blob")
		return "", fmt.Errorf("%w: %v", domain.ErrNoResult, err)
	}
	decoded = strings.TrimSpace(decoded)
	if !bibtex.IsEntry(decoded) {
		return "", domain.ErrNoResult
	}
	return decoded, nil
}

// orNotes models the notes API response.
type orNotes struct {
	Notes []orNote `json:"notes"`
}

type orNote struct {
	Cdate      int64  `json:"cdate"`
	Invitation string `json:"invitation"`
	Content    struct {
		Title   orString  `json:"title"`
		Authors orStrings `json:"authors"`
		Venue   orString  `json:"venue"`
	} `json:"content"`
}

// orString decodes an OpenReview content field that may be a bare string,
// a one-element array, or a {"value": ...} wrapper (API v2).
type orString string

func (s *orString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = orString(str)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		if len(list) > 0 {
			*s = orString(list[0])
		}
		return nil
	}
	var wrapped struct {
		Value orString `json:"value"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil {
		*s = wrapped.Value
		return nil
	}
	return nil
}

// orStrings decodes a field that may be a string, an array of strings, or a
// {"value": [...]} wrapper.
type orStrings []string

func (s *orStrings) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = orStrings{str}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = orStrings(list)
		return nil
	}
	var wrapped struct {
		Value []string `json:"value"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil {
		*s = orStrings(wrapped.Value)
		return nil
	}
	return nil
}

// fromAPI renders an entry from the notes API JSON.
func (h *OpenReviewHandler) fromAPI(ctx context.Context, paperID string) (string, error) {
	res, err := h.fetcher.Fetch(ctx, domain.FetchOptions{
		URL:    openreviewAPI,
		Query:  url.Values{"id": {paperID}},
		Accept: domain.AcceptJSON,
	})
	if err != nil {
		h.logger.Debug().Err(err).Str("id", paperID).Msg("OpenReview API fetch failed")
		return "", fmt.Errorf("%w: %v", domain.ErrNoResult, err)
	}

	var notes orNotes
	if err := res.JSON(&notes); err != nil {
		h.logger.Debug().Err(err).Msg("Failed to parse OpenReview response")
		return "", fmt.Errorf("%w: %v", domain.ErrNoResult, err)
	}
	if len(notes.Notes) == 0 {
		h.logger.Debug().Str("id", paperID).Msg("No paper found")
		return "", domain.ErrNoResult
	}
	note := notes.Notes[0]

	title := strings.Join(strings.Fields(string(note.Content.Title)), " ")
	if title == "" {
		return "", domain.ErrNoResult
	}

	authors := []string(note.Content.Authors)

	var year string
	if note.Cdate > 0 {
		year = strconv.Itoa(time.UnixMilli(note.Cdate).Year())
	}

	venue := string(note.Content.Venue)
	if venue == "" && note.Invitation != "" {
		if m := invitationVenuePattern.FindStringSubmatch(note.Invitation); m != nil {
			venue = m[1]
		}
	}

	entryType := bibtex.TypeArticle
	if venue != "" {
		entryType = bibtex.TypeInProceedings
	}

	key := bibtex.CiteKey(authors, year, "openreview")
	entry := bibtex.NewEntry(entryType, key).
		Add("title", title).
		Add("author", bibtex.JoinAuthors(authors)).
		Add("year", year)
	if venue != "" {
		entry.Add("booktitle", venue)
	} else {
		entry.Add("journal", "OpenReview")
	}
	entry.Add("url", "https://openreview.net/forum?id="+paperID).
		Add("note", "OpenReview ID: "+paperID)

	return entry.String(), nil
}
