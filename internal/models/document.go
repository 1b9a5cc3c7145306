// Package models defines core data structures for documents, search requests, and results.
package models

import "time"

// DocumentRecord is the stored state of one source file: its cleaned text,
// the hash of that text and the embedding computed from it.
// ContentHash always describes CleanedText; Embedding is only ever written together with both.
// Model names the embedder that produced Embedding (see embedding.Signature).
type DocumentRecord struct {
	DocID       string    `json:"doc_id" db:"doc_id"`
	Filename    string    `json:"filename" db:"filename"`
	ContentHash string    `json:"content_hash" db:"content_hash"`
	Embedding   []float32 `json:"-" db:"embedding"`
	Model       string    `json:"model" db:"model"`
	CleanedText string    `json:"cleaned_text" db:"cleaned_text"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Dimensions returns the length of the stored embedding.
func (r *DocumentRecord) Dimensions() int {
	return len(r.Embedding)
}
