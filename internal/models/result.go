package models

// Explanation is the lexical rationale reported next to a vector similarity score.
// It never influences ranking.
type Explanation struct {
	OverlapRatio     float64  `json:"overlap_ratio"`
	CommonWords      []string `json:"common_words"`
	RelevanceSummary string   `json:"relevance_summary"`
}

// SearchResult is a single ranked hit.
type SearchResult struct {
	DocID       string      `json:"doc_id"`
	Score       float64     `json:"score"`
	Preview     string      `json:"preview"`
	Explanation Explanation `json:"explanation"`
}

// SearchResponse is the response for a search request. Results are ordered by descending score.
type SearchResponse struct {
	Results   []SearchResult `json:"results"`
	QueryTime int64          `json:"query_time_ms"`
}
