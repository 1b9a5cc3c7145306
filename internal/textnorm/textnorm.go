// Package textnorm cleans raw document text and hashes the result for change detection.
package textnorm

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// Clean lowercases text, strips markup-like tags, collapses whitespace runs
// to a single space and trims the ends. Texts that differ only in case,
// spacing or tags produce the same output.
func Clean(raw string) string {
	text := strings.ToLower(raw)
	text = tagPattern.ReplaceAllString(text, "")
	return collapseSpace(text)
}

func collapseSpace(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	pending := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			pending = b.Len() > 0
			continue
		}
		if pending {
			b.WriteByte(' ')
			pending = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Hash returns the hex SHA-256 digest of cleaned text.
func Hash(cleaned string) string {
	sum := sha256.Sum256([]byte(cleaned))
	return hex.EncodeToString(sum[:])
}

// Words lowercases text and splits it on whitespace.
func Words(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// WordSet returns the distinct words of text.
func WordSet(text string) map[string]struct{} {
	words := Words(text)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
