package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BiradarScripts/Djaan/internal/fileid"
)

// TextExtractor converts a file on disk to raw text.
type TextExtractor interface {
	Extract(path string) (string, error)
}

// DirSource reads documents from a directory tree. Hidden files and directories are skipped.
type DirSource struct {
	root       string
	extensions []string
	extractor  TextExtractor
}

// NewDirSource returns a source over root that lists files whose extension is in extensions
// (case-insensitive, with or without the leading dot). Empty extensions defaults to .txt.
func NewDirSource(root string, extensions []string, extractor TextExtractor) *DirSource {
	if len(extensions) == 0 {
		extensions = []string{".txt"}
	}
	return &DirSource{root: root, extensions: extensions, extractor: extractor}
}

// Root returns the directory being indexed.
func (s *DirSource) Root() string {
	return s.root
}

// List walks the root recursively.
func (s *DirSource) List(ctx context.Context) ([]string, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, fmt.Errorf("stat source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", s.root)
	}
	var names []string
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != s.root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !s.Allowed(path) {
			return nil
		}
		// Follow symlinks; only regular files are documents.
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		names = append(names, fileid.Key(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk source directory: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Read extracts the text of filename, which must be a relative path inside the root.
func (s *DirSource) Read(ctx context.Context, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	local := filepath.FromSlash(filename)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: %q is outside the source root", ErrNotFound, filename)
	}
	path := filepath.Join(s.root, local)
	if s.extractor == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", wrapRead(filename, err)
		}
		return string(data), nil
	}
	text, err := s.extractor.Extract(path)
	if err != nil {
		return "", wrapRead(filename, err)
	}
	return text, nil
}

// Allowed reports whether path has one of the configured extensions.
func (s *DirSource) Allowed(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return false
	}
	for _, a := range s.extensions {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == ext {
			return true
		}
	}
	return false
}

func wrapRead(filename string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, filename)
	}
	return fmt.Errorf("read %s: %w", filename, err)
}
