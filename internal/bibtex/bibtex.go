// Package bibtex renders BibTeX entries from source metadata. It builds
// formatted strings, not a typed citation model: fields are emitted in
// insertion order, empty values are skipped, and no semantic validation is
// performed.
package bibtex

import (
	"fmt"
	"regexp"
	"strings"
)

// Entry types used by the handlers.
const (
	TypeArticle       = "article"
	TypeInProceedings = "inproceedings"
	TypeSoftware      = "software"
	TypeBook          = "book"
	TypeMisc          = "misc"
)

type field struct {
	name  string
	value string
}

// Entry is a BibTeX entry under construction.
type Entry struct {
	Type   string
	Key    string
	fields []field
}

// NewEntry creates an entry of the given type with the given citation key.
func NewEntry(entryType, key string) *Entry {
	return &Entry{Type: entryType, Key: key}
}

// Add appends a field. Empty values are skipped so absent source metadata
// never produces empty BibTeX fields.
func (e *Entry) Add(name, value string) *Entry {
	if value == "" {
		return e
	}
	e.fields = append(e.fields, field{name: name, value: value})
	return e
}

// String renders the entry: fields indented two spaces, comma-terminated
// except the last.
func (e *Entry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", e.Type, e.Key)
	for i, f := range e.fields {
		fmt.Fprintf(&b, "  %s = {%s}", f.name, f.value)
		if i < len(e.fields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

// JoinAuthors joins an author list with the BibTeX " and " separator.
func JoinAuthors(authors []string) string {
	return strings.Join(authors, " and ")
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

// FamilyName extracts the lowercase family name from an author string,
// handling both "Jane Doe" and "Doe, Jane" forms, stripped of
// non-alphanumeric characters.
func FamilyName(author string) string {
	author = strings.TrimSpace(author)
	if author == "" {
		return ""
	}
	var family string
	if idx := strings.Index(author, ","); idx >= 0 {
		family = author[:idx]
	} else {
		parts := strings.Fields(author)
		family = parts[len(parts)-1]
	}
	return nonAlnum.ReplaceAllString(strings.ToLower(family), "")
}

// CiteKey derives a citation key from the first author's family name and the
// year. When no author is known the fallback source prefix is used instead.
func CiteKey(authors []string, year, fallbackPrefix string) string {
	if len(authors) > 0 {
		if family := FamilyName(authors[0]); family != "" {
			return family + year
		}
	}
	return fallbackPrefix + year
}

var yearPattern = regexp.MustCompile(`\d{4}`)

// Year extracts the first four-digit year from a date string, or "" when
// none is found.
func Year(date string) string {
	return yearPattern.FindString(date)
}

// IsEntry reports whether s looks like a BibTeX entry (starts with '@'
// after trimming).
func IsEntry(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "@")
}
