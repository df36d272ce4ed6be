// Package regno holds the single normalization rule for drug registration
// numbers: uppercase, trimmed. Every comparison in the system goes through
// Normalize so the two stores cannot drift on case or padding.
package regno

import "strings"

// Normalize canonicalizes a registration number for matching and storage.
func Normalize(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// Empty reports whether the value normalizes to nothing.
func Empty(value string) bool {
	return Normalize(value) == ""
}
