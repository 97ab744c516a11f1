package resolve

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Unknown is the placeholder recorded when neither tags nor the
// filename yield a usable value.
const Unknown = "Unknown"

// Clean canonicalizes a name for storage: Unicode NFC, trimmed, with
// internal whitespace runs collapsed. Case is preserved; matching is
// case-insensitive at the catalog layer.
func Clean(s string) string {
	s = norm.NFC.String(s)
	s = strings.TrimSpace(s)
	return strings.Join(strings.Fields(s), " ")
}

// Fold lowercases a cleaned name for in-memory comparison
func Fold(s string) string {
	return strings.ToLower(Clean(s))
}

// OrUnknown substitutes the placeholder for an empty cleaned value
func OrUnknown(s string) string {
	if c := Clean(s); c != "" {
		return c
	}
	return Unknown
}
