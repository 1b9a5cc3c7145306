// Package fileid derives document identifiers and store keys from source paths.
package fileid

import (
	"path"
	"path/filepath"
	"strings"
)

// Key returns the store key for a path relative to the source root:
// cleaned and slash-separated so the same file has the same key on every OS.
func Key(relPath string) string {
	return path.Clean(filepath.ToSlash(relPath))
}

// DocID returns the document ID for a source-relative path: the key with the base name
// cut at its first dot. "doc_001.txt" -> "doc_001", "notes/a.b.md" -> "notes/a".
// A base name starting with a dot is kept whole.
func DocID(relPath string) string {
	key := Key(relPath)
	dir, base := path.Split(key)
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return dir + base
}
