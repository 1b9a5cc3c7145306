package models

import "time"

// FailureKind classifies a per-file refresh failure.
type FailureKind string

const (
	// FailureSourceRead means the file could not be read from the document source.
	FailureSourceRead FailureKind = "source_read"
	// FailureEmbedding means the embedding provider failed for the file.
	FailureEmbedding FailureKind = "embedding"
)

// FileFailure records a file that was skipped during a refresh.
type FileFailure struct {
	Filename string      `json:"filename"`
	Kind     FailureKind `json:"kind"`
	Error    string      `json:"error"`
}

// RefreshReport summarizes one refresh cycle.
type RefreshReport struct {
	RunID       string        `json:"run_id"`
	Scanned     int           `json:"scanned"`
	Added       int           `json:"added"`
	Updated     int           `json:"updated"`
	Unchanged   int           `json:"unchanged"`
	Pruned      int           `json:"pruned"`
	// Excluded counts stored records left out of the index because a different embedder
	// produced them and they could not be re-embedded in this cycle.
	Excluded    int           `json:"excluded"`
	Failures    []FileFailure `json:"failures"`
	IndexSize   int           `json:"index_size"`
	Fingerprint string        `json:"fingerprint,omitempty"`
	Duration    time.Duration `json:"duration_ns"`
}

// Embedded returns how many documents were (re)embedded in this cycle.
func (r *RefreshReport) Embedded() int {
	return r.Added + r.Updated
}

// FailureCount returns the number of failures of the given kind.
func (r *RefreshReport) FailureCount(kind FailureKind) int {
	n := 0
	for _, f := range r.Failures {
		if f.Kind == kind {
			n++
		}
	}
	return n
}
