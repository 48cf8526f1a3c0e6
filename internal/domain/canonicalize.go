package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD, removes combining marks, and recomposes.
// "Ναι" with a tonos and "Ναι" without one canonicalize identically.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// CanonicalOption reduces an answer option to its comparison form:
// Unicode-normalized, combining marks and punctuation stripped, whitespace
// collapsed, case-folded. Two options with equal canonical forms are
// duplicates ("πάω" vs "πάω.", "Ναι!" vs "ναι").
func CanonicalOption(s string) string {
	stripped, _, err := transform.String(stripMarks, s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	b.Grow(len(stripped))
	prevSpace := false
	for _, r := range stripped {
		switch {
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			continue
		case unicode.IsSpace(r):
			if prevSpace || b.Len() == 0 {
				continue
			}
			prevSpace = true
			b.WriteRune(' ')
		default:
			prevSpace = false
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return strings.TrimSpace(b.String())
}
