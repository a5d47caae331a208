package bibtex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntryString(t *testing.T) {
	entry := NewEntry(TypeArticle, "doe2021").
		Add("title", "Example Paper").
		Add("author", "Jane Doe").
		Add("year", "2021")

	expected := "@article{doe2021,\n" +
		"  title = {Example Paper},\n" +
		"  author = {Jane Doe},\n" +
		"  year = {2021}\n" +
		"}"
	assert.Equal(t, expected, entry.String())
}

func TestEntrySkipsEmptyFields(t *testing.T) {
	entry := NewEntry(TypeMisc, "web2021").
		Add("title", "Example").
		Add("journal", "").
		Add("doi", "")

	out := entry.String()
	assert.NotContains(t, out, "journal")
	assert.NotContains(t, out, "doi")
	assert.Contains(t, out, "title = {Example}")
}

func TestEntryLastFieldHasNoComma(t *testing.T) {
	entry := NewEntry(TypeMisc, "k").
		Add("title", "T").
		Add("year", "2020")

	assert.Contains(t, entry.String(), "  year = {2020}\n}")
}

func TestCiteKey(t *testing.T) {
	tests := []struct {
		name     string
		authors  []string
		year     string
		fallback string
		expected string
	}{
		{"given-family order", []string{"Jane Doe"}, "2021", "arxiv", "doe2021"},
		{"family-comma order", []string{"Doe, Jane"}, "2021", "arxiv", "doe2021"},
		{"no authors uses fallback", nil, "2021", "arxiv", "arxiv2021"},
		{"accented family name stripped", []string{"José Martínez-López"}, "2019", "doi", "martnezlpez2019"},
		{"multiple authors uses first", []string{"Ada Lovelace", "Charles Babbage"}, "1843", "x", "lovelace1843"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CiteKey(tt.authors, tt.year, tt.fallback))
		})
	}
}

func TestFamilyName(t *testing.T) {
	assert.Equal(t, "doe", FamilyName("Jane Doe"))
	assert.Equal(t, "doe", FamilyName("Doe, Jane"))
	assert.Equal(t, "doe", FamilyName("Doe"))
	assert.Equal(t, "", FamilyName(""))
	assert.Equal(t, "oneill", FamilyName("Tip O'Neill"))
}

func TestJoinAuthors(t *testing.T) {
	assert.Equal(t, "Jane Doe and John Smith", JoinAuthors([]string{"Jane Doe", "John Smith"}))
	assert.Equal(t, "Jane Doe", JoinAuthors([]string{"Jane Doe"}))
	assert.Equal(t, "", JoinAuthors(nil))
}

func TestYear(t *testing.T) {
	assert.Equal(t, "2021", Year("2021-03-01"))
	assert.Equal(t, "2021", Year("2021-03-01T00:00:00Z"))
	assert.Equal(t, "1998", Year("Published 1998"))
	assert.Equal(t, "", Year("no year here"))
	assert.Equal(t, "", Year(""))
}

func TestIsEntry(t *testing.T) {
	assert.True(t, IsEntry("@article{key,\n}"))
	assert.True(t, IsEntry("\n  @misc{key}\n"))
	assert.False(t, IsEntry("<html>not bibtex</html>"))
	assert.False(t, IsEntry(""))
}
