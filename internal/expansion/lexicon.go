// Package expansion widens search queries with synonyms before they are embedded.
package expansion

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed thesaurus.yaml
var defaultThesaurus []byte

// Lexicon looks up synonyms for a single word.
type Lexicon interface {
	// Synonyms returns the known synonyms of word, or nil when the word is unknown.
	Synonyms(word string) []string
}

// MapLexicon is a Lexicon backed by an in-memory table.
type MapLexicon struct {
	entries map[string][]string
}

// NewMapLexicon builds a lexicon from raw entries. Keys and synonyms are lowercased,
// underscores in multiword lemmas become spaces and a word is never its own synonym.
func NewMapLexicon(raw map[string][]string) *MapLexicon {
	entries := make(map[string][]string, len(raw))
	for word, syns := range raw {
		key := normalizeLemma(word)
		if key == "" {
			continue
		}
		seen := make(map[string]bool, len(entries[key])+len(syns))
		for _, s := range entries[key] {
			seen[s] = true
		}
		for _, s := range syns {
			s = normalizeLemma(s)
			if s == "" || s == key || seen[s] {
				continue
			}
			seen[s] = true
			entries[key] = append(entries[key], s)
		}
	}
	for key := range entries {
		sort.Strings(entries[key])
	}
	return &MapLexicon{entries: entries}
}

// ParseLexicon reads a YAML mapping of word to synonym list.
func ParseLexicon(data []byte) (*MapLexicon, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse thesaurus: %w", err)
	}
	return NewMapLexicon(raw), nil
}

// LoadLexicon reads a YAML thesaurus file.
func LoadLexicon(path string) (*MapLexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read thesaurus: %w", err)
	}
	return ParseLexicon(data)
}

// DefaultLexicon returns the built-in thesaurus.
func DefaultLexicon() *MapLexicon {
	lex, err := ParseLexicon(defaultThesaurus)
	if err != nil {
		panic(fmt.Sprintf("embedded thesaurus is invalid: %v", err))
	}
	return lex
}

// Synonyms returns a copy of the synonyms of word.
func (l *MapLexicon) Synonyms(word string) []string {
	syns := l.entries[normalizeLemma(word)]
	if len(syns) == 0 {
		return nil
	}
	out := make([]string, len(syns))
	copy(out, syns)
	return out
}

// Len returns the number of headwords.
func (l *MapLexicon) Len() int {
	return len(l.entries)
}

func normalizeLemma(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), "_", " ")
	return strings.Join(strings.Fields(s), " ")
}
