// Package utils provides shared utilities for text, math, and logging.
package utils

// Ellipsis is appended to truncated previews.
const Ellipsis = "..."

// Truncate returns s truncated to maxLen characters, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged. Counts runes, not bytes.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + Ellipsis
}

// Preview returns the first maxLen characters of s followed by "...". The marker is
// appended even when s is shorter than maxLen.
func Preview(s string, maxLen int) string {
	r := []rune(s)
	if maxLen > 0 && len(r) > maxLen {
		r = r[:maxLen]
	}
	return string(r) + Ellipsis
}
