package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchResultIsJSON(t *testing.T) {
	assert.True(t, (&FetchResult{ContentType: "application/json"}).IsJSON())
	assert.True(t, (&FetchResult{ContentType: "application/json; charset=utf-8"}).IsJSON())
	assert.True(t, (&FetchResult{ContentType: "application/vnd.github.v3+json"}).IsJSON())
	assert.False(t, (&FetchResult{ContentType: "text/html"}).IsJSON())
}

func TestFetchResultJSON(t *testing.T) {
	res := &FetchResult{Body: []byte(`{"title":"Example"}`), URL: "https://api.example.com"}

	var out struct {
		Title string `json:"title"`
	}
	require.NoError(t, res.JSON(&out))
	assert.Equal(t, "Example", out.Title)

	res.Body = []byte("not json")
	assert.Error(t, res.JSON(&out))
}
