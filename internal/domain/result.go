package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// IsJSON reports whether the response declared a JSON content type.
func (r *FetchResult) IsJSON() bool {
	return strings.Contains(r.ContentType, "application/json") ||
		strings.Contains(r.ContentType, "+json")
}

// JSON decodes the response body into v.
func (r *FetchResult) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode JSON from %s: %w", r.URL, err)
	}
	return nil
}
