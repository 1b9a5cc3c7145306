package source

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// StaticSource is an in-memory Source. It is safe for concurrent use.
type StaticSource struct {
	mu    sync.RWMutex
	files map[string]string
}

// NewStaticSource returns a source holding a copy of files.
func NewStaticSource(files map[string]string) *StaticSource {
	s := &StaticSource{files: make(map[string]string, len(files))}
	for name, text := range files {
		s.files[name] = text
	}
	return s
}

// Set adds or replaces a file.
func (s *StaticSource) Set(filename, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[filename] = text
}

// Remove deletes a file.
func (s *StaticSource) Remove(filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, filename)
}

func (s *StaticSource) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *StaticSource) Read(ctx context.Context, filename string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.files[filename]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, filename)
	}
	return text, nil
}
