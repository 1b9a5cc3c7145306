// Package source enumerates and reads the documents to be indexed.
package source

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read for a filename the source does not contain.
var ErrNotFound = errors.New("source file not found")

// Source yields (filename, raw text) pairs. Filenames are slash-separated and relative
// to the source root; they are the document store keys.
type Source interface {
	// List returns every filename currently in the source, sorted.
	List(ctx context.Context) ([]string, error)
	// Read returns the raw text of one file.
	Read(ctx context.Context, filename string) (string, error)
}
