package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultTopK is the number of results returned when a request does not set top_k.
const DefaultTopK = 5

// SearchRequest is a similarity search request.
type SearchRequest struct {
	Query        string `json:"query"`
	TopK         int    `json:"top_k"`
	UseExpansion bool   `json:"use_expansion"`
}

// NewSearchRequest returns a request for query with the default top_k and no expansion.
func NewSearchRequest(query string) *SearchRequest {
	return &SearchRequest{Query: query, TopK: DefaultTopK}
}

// UnmarshalJSON decodes a request, defaulting top_k to DefaultTopK when the field is absent.
// An explicit zero or negative top_k is kept so that Validate rejects it.
func (q *SearchRequest) UnmarshalJSON(data []byte) error {
	type wire SearchRequest
	w := wire{TopK: DefaultTopK}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*q = SearchRequest(w)
	return nil
}

// Validate rejects empty queries and non-positive top_k values.
func (q *SearchRequest) Validate() error {
	if strings.TrimSpace(q.Query) == "" {
		return fmt.Errorf("%w: query cannot be empty", ErrInvalidRequest)
	}
	if q.TopK < 1 {
		return fmt.Errorf("%w: top_k must be at least 1, got %d", ErrInvalidRequest, q.TopK)
	}
	return nil
}
