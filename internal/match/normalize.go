package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes a designation for comparison: Unicode NFC, lower
// case, everything that is neither letter, digit nor whitespace removed,
// whitespace runs collapsed to a single space, ends trimmed. The function is
// pure and idempotent; empty input yields an empty string.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	composed := norm.NFC.String(text)

	var b strings.Builder
	b.Grow(len(composed))
	for _, r := range strings.ToLower(composed) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NoSpaces returns the normalized form with whitespace removed, used as a
// dedup and lookup key.
func NoSpaces(text string) string {
	return strings.ReplaceAll(Normalize(text), " ", "")
}
