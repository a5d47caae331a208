package handlers

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/quantmind-br/url2bibtex-go/internal/bibtex"
	"github.com/quantmind-br/url2bibtex-go/internal/domain"
	"github.com/quantmind-br/url2bibtex-go/internal/fetcher"
	"github.com/quantmind-br/url2bibtex-go/internal/utils"
)

const (
	githubAPI = "https://api.github.com"
	gitlabAPI = "https://gitlab.com/api/v4"
	zenodoAPI = "https://zenodo.org/api/records"
)

var (
	githubPattern = regexp.MustCompile(`github\.com/([a-zA-Z0-9_-]+)/([a-zA-Z0-9_.-]+)`)
	gitlabPattern = regexp.MustCompile(`gitlab\.com/([a-zA-Z0-9_-]+)/([a-zA-Z0-9_.-]+)`)
	zenodoPattern = regexp.MustCompile(`zenodo\.org/records?/(\d+)`)
)

// citationBranches are the branch names tried, in order, when looking for a
// CITATION.cff file.
var citationBranches = []string{"main", "master"}

// RepoHandler converts code-hosting URLs into software citations. Three
// sub-platforms are covered: GitHub and GitLab repositories (CITATION.cff
// first, platform API metadata as fallback) and Zenodo records (records
// API, with the resource-type vocabulary mapped to BibTeX entry types).
//
// Supported URL shapes:
//   - https://github.com/owner/repo
//   - https://gitlab.com/owner/repo
//   - https://zenodo.org/records/1234567
type RepoHandler struct {
	fetcher domain.Fetcher
	logger  *utils.Logger
}

// NewRepoHandler creates a new code-hosting handler.
func NewRepoHandler(deps *Dependencies) *RepoHandler {
	return &RepoHandler{
		fetcher: deps.Fetcher,
		logger:  deps.Logger.WithHandler("repo"),
	}
}

func (h *RepoHandler) Name() string { return "repo" }

func (h *RepoHandler) Description() string {
	return "GitHub/GitLab repositories (CITATION.cff) and Zenodo records"
}

func (h *RepoHandler) CanHandle(url string) bool {
	return githubPattern.MatchString(url) ||
		gitlabPattern.MatchString(url) ||
		zenodoPattern.MatchString(url)
}

func (h *RepoHandler) Extract(ctx context.Context, rawURL string) (string, error) {
	if m := zenodoPattern.FindStringSubmatch(rawURL); m != nil {
		return h.extractZenodo(ctx, m[1])
	}
	if m := githubPattern.FindStringSubmatch(rawURL); m != nil {
		return h.extractGitHub(ctx, m[1], m[2])
	}
	if m := gitlabPattern.FindStringSubmatch(rawURL); m != nil {
		return h.extractGitLab(ctx, m[1], m[2])
	}
	return "", domain.ErrNoResult
}

// --- GitHub ---

func (h *RepoHandler) extractGitHub(ctx context.Context, owner, repo string) (string, error) {
	repoURL := "https://github.com/" + owner + "/" + repo
	for _, branch := range citationBranches {
		cffURL := fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/CITATION.cff", owner, repo, branch)
		if entry, err := h.fromCitationFile(ctx, cffURL, owner, repo, repoURL, "GitHub"); err == nil {
			return entry, nil
		}
	}
	return h.fromGitHubAPI(ctx, owner, repo, repoURL)
}

// githubRepo models the subset of the repository metadata we read.
type githubRepo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	Owner       struct {
		Login string `json:"login"`
	} `json:"owner"`
}

type githubContributor struct {
	Login string `json:"login"`
}

func (h *RepoHandler) fromGitHubAPI(ctx context.Context, owner, repo, repoURL string) (string, error) {
	res, err := h.fetcher.Fetch(ctx, domain.FetchOptions{
		URL:    githubAPI + "/repos/" + owner + "/" + repo,
		Accept: domain.AcceptGitHub,
	})
	if err != nil {
		h.logger.Debug().Err(err).Str("repo", owner+"/"+repo).Msg("GitHub API fetch failed")
		return "", fmt.Errorf("%w: %v", domain.ErrNoResult, err)
	}

	var meta githubRepo
	if err := res.JSON(&meta); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrNoResult, err)
	}

	name := meta.Name
	if name == "" {
		name = repo
	}
	ownerName := meta.Owner.Login
	if ownerName == "" {
		ownerName = owner
	}

	authors := h.githubContributors(ctx, owner, repo)
	if len(authors) == 0 {
		authors = []string{ownerName}
	}

	year := bibtex.Year(meta.CreatedAt)
	key := bibtex.CiteKey(authors, year, "github")

	return bibtex.NewEntry(bibtex.TypeSoftware, key).
		Add("title", name).
		Add("author", bibtex.JoinAuthors(authors)).
		Add("year", year).
		Add("note", meta.Description).
		Add("url", repoURL).
		Add("publisher", "GitHub").
		String(), nil
}

// githubContributors fetches the top contributor logins; failure is not
// fatal, the owner serves as author instead.
func (h *RepoHandler) githubContributors(ctx context.Context, owner, repo string) []string {
	res, err := h.fetcher.Fetch(ctx, domain.FetchOptions{
		URL:    githubAPI + "/repos/" + owner + "/" + repo + "/contributors",
		Query:  url.Values{"per_page": {"5"}},
		Accept: domain.AcceptGitHub,
	})
	if err != nil {
		return nil
	}
	var contributors []githubContributor
	if err := res.JSON(&contributors); err != nil {
		return nil
	}
	var logins []string
	for _, c := range contributors {
		if c.Login != "" {
			logins = append(logins, c.Login)
		}
	}
	return logins
}

// --- GitLab ---

// gitlabProject models the subset of the projects API response we read.
type gitlabProject struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	Namespace   struct {
		Name string `json:"name"`
	} `json:"namespace"`
}

func (h *RepoHandler) extractGitLab(ctx context.Context, owner, repo string) (string, error) {
	repoURL := "https://gitlab.com/" + owner + "/" + repo
	for _, branch := range citationBranches {
		cffURL := fmt.Sprintf("https://gitlab.com/%s/%s/-/raw/%s/CITATION.cff", owner, repo, branch)
		if entry, err := h.fromCitationFile(ctx, cffURL, owner, repo, repoURL, "GitLab"); err == nil {
			return entry, nil
		}
	}

	res, err := h.fetcher.Fetch(ctx, domain.FetchOptions{
		URL:    gitlabAPI + "/projects/" + url.PathEscape(owner+"/"+repo),
		Accept: domain.AcceptJSON,
	})
	if err != nil {
		h.logger.Debug().Err(err).Str("repo", owner+"/"+repo).Msg("GitLab API fetch failed")
		return "", fmt.Errorf("%w: %v", domain.ErrNoResult, err)
	}

	var project gitlabProject
	if err := res.JSON(&project); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrNoResult, err)
	}

	name := project.Name
	if name == "" {
		name = repo
	}
	author := project.Namespace.Name
	if author == "" {
		author = owner
	}

	year := bibtex.Year(project.CreatedAt)
	key := bibtex.CiteKey([]string{author}, year, "gitlab")

	return bibtex.NewEntry(bibtex.TypeSoftware, key).
		Add("title", name).
		Add("author", author).
		Add("year", year).
		Add("note", project.Description).
		Add("url", repoURL).
		Add("publisher", "GitLab").
		String(), nil
}

// --- Zenodo ---

// zenodoRecord models the subset of the records API response we read.
type zenodoRecord struct {
	DOI      string `json:"doi"`
	Metadata struct {
		Title           string `json:"title"`
		PublicationDate string `json:"publication_date"`
		Creators        []struct {
			Name string `json:"name"`
		} `json:"creators"`
		ResourceType struct {
			Type string `json:"type"`
		} `json:"resource_type"`
	} `json:"metadata"`
}

func (h *RepoHandler) extractZenodo(ctx context.Context, recordID string) (string, error) {
	res, err := h.fetcher.Fetch(ctx, domain.FetchOptions{
		URL:    zenodoAPI + "/" + recordID,
		Accept: domain.AcceptJSON,
	})
	if err != nil {
		h.logger.Debug().Err(err).Str("record", recordID).Msg("Zenodo API fetch failed")
		return "", fmt.Errorf("%w: %v", domain.ErrNoResult, err)
	}

	var record zenodoRecord
	if err := res.JSON(&record); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrNoResult, err)
	}

	title := strings.TrimSpace(record.Metadata.Title)
	if title == "" {
		return "", domain.ErrNoResult
	}

	var authors []string
	for _, c := range record.Metadata.Creators {
		if c.Name != "" {
			authors = append(authors, c.Name)
		}
	}

	year := bibtex.Year(record.Metadata.PublicationDate)
	key := bibtex.CiteKey(authors, year, "zenodo")

	return bibtex.NewEntry(zenodoEntryType(record.Metadata.ResourceType.Type), key).
		Add("title", title).
		Add("author", bibtex.JoinAuthors(authors)).
		Add("year", year).
		Add("doi", record.DOI).
		Add("url", "https://zenodo.org/records/"+recordID).
		Add("publisher", "Zenodo").
		String(), nil
}

// zenodoEntryType maps the Zenodo resource-type vocabulary to BibTeX entry
// types.
func zenodoEntryType(resourceType string) string {
	switch resourceType {
	case "publication":
		return bibtex.TypeArticle
	case "software":
		return bibtex.TypeSoftware
	case "book":
		return bibtex.TypeBook
	default:
		// dataset, poster, presentation, image, video, ...
		return bibtex.TypeMisc
	}
}

// --- CITATION.cff ---

// cffMeta holds the fields recognized in a CITATION.cff file.
type cffMeta struct {
	Title        string
	DateReleased string
	Authors      []cffAuthor
}

type cffAuthor struct {
	Family string
	Given  string
}

// fromCitationFile fetches and renders a CITATION.cff from the given raw
// URL.
func (h *RepoHandler) fromCitationFile(ctx context.Context, cffURL, owner, repo, repoURL, publisher string) (string, error) {
	res, err := h.fetcher.Fetch(ctx, domain.FetchOptions{
		URL:        cffURL,
		Accept:     domain.AcceptText,
		MaxRetries: 1,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrNoResult, err)
	}

	meta := parseCitationFile(fetcher.DecodeText(res.Body, res.ContentType))

	title := meta.Title
	if title == "" {
		title = owner + "/" + repo
	}

	var authors []string
	for _, a := range meta.Authors {
		switch {
		case a.Given != "" && a.Family != "":
			authors = append(authors, a.Given+" "+a.Family)
		case a.Family != "":
			authors = append(authors, a.Family)
		}
	}
	authorsStr := bibtex.JoinAuthors(authors)
	if authorsStr == "" {
		authorsStr = owner
	}

	year := bibtex.Year(meta.DateReleased)

	var key string
	if len(meta.Authors) > 0 && meta.Authors[0].Family != "" {
		key = bibtex.CiteKey([]string{meta.Authors[0].Family}, year, strings.ToLower(publisher))
	} else {
		key = bibtex.CiteKey([]string{owner}, year, strings.ToLower(publisher))
	}

	return bibtex.NewEntry(bibtex.TypeSoftware, key).
		Add("title", title).
		Add("author", authorsStr).
		Add("year", year).
		Add("url", repoURL).
		Add("note", publisher+" repository").
		String(), nil
}

// parseCitationFile scans a CITATION.cff with a hand-rolled key:value walk.
// The format is loosely structured YAML but only a flat subset matters
// here: the top-level title and date-released fields plus the authors list
// with family-names/given-names entries.
func parseCitationFile(content string) cffMeta {
	var meta cffMeta
	lines := strings.Split(content, "\n")

	inAuthors := false
	var current *cffAuthor
	flush := func() {
		if current != nil && (current.Family != "" || current.Given != "") {
			meta.Authors = append(meta.Authors, *current)
		}
		current = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		indented := strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") || strings.HasPrefix(trimmed, "-")

		if strings.HasPrefix(trimmed, "authors:") {
			inAuthors = true
			continue
		}

		if inAuthors {
			switch {
			case strings.HasPrefix(trimmed, "-"):
				flush()
				current = &cffAuthor{}
				rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "-"))
				applyAuthorField(current, rest)
			case indented && current != nil:
				applyAuthorField(current, trimmed)
			case !indented && trimmed != "":
				// A new top-level key ends the authors block
				flush()
				inAuthors = false
			}
		}

		if !inAuthors && !indented {
			key, value, ok := splitCFFLine(trimmed)
			if !ok {
				continue
			}
			switch key {
			case "title":
				meta.Title = value
			case "date-released":
				meta.DateReleased = value
			}
		}
	}
	flush()

	return meta
}

// applyAuthorField sets a family-names/given-names value on the author.
func applyAuthorField(author *cffAuthor, line string) {
	key, value, ok := splitCFFLine(line)
	if !ok {
		return
	}
	switch key {
	case "family-names":
		author.Family = value
	case "given-names":
		author.Given = value
	}
}

// splitCFFLine splits "key: value" and strips surrounding quotes.
func splitCFFLine(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	value = strings.Trim(value, `"'`)
	if key == "" || value == "" {
		return "", "", false
	}
	return key, value, true
}
