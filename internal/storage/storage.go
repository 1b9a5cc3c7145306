// Package storage defines the persistence interface for indexed documents.
package storage

import (
	"context"
	"errors"

	"github.com/BiradarScripts/Djaan/internal/models"
)

// ErrNotFound is returned when no record exists for a filename.
var ErrNotFound = errors.New("document not found")

// Store persists one DocumentRecord per source filename.
type Store interface {
	// GetDocument returns the record for filename or ErrNotFound.
	GetDocument(ctx context.Context, filename string) (*models.DocumentRecord, error)
	// UpsertDocument inserts or replaces the hash, embedding, text and timestamp of a record
	// in a single statement. The doc_id of an existing record is never changed.
	UpsertDocument(ctx context.Context, rec *models.DocumentRecord) error
	// ListDocuments returns every record ordered by filename.
	ListDocuments(ctx context.Context) ([]*models.DocumentRecord, error)
	DeleteDocument(ctx context.Context, filename string) error
	CountDocuments(ctx context.Context) (int64, error)

	Close() error
}
