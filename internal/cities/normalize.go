// internal/cities/normalize.go
//
// Canonicalization of raw city-name input.
//
// Two raw strings refer to the same city iff their normalized forms are
// equal. The normalized form is what gets stored in the index, in the
// per-session used set, and what all membership checks run against.
//
// Normalization steps:
//   1. Unicode canonical composition (NFC).
//   2. Trim surrounding whitespace, lowercase.
//   3. Fold ё → е (the two are interchangeable in common spelling).
//   4. Drop hyphens and interior whitespace ("Ростов-на-Дону" → "ростовнадону").
//   5. Drop every rune outside the Russian alphabet а–я.
//
// The result may be empty; callers treat empty as "not a city name".

package cities

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes a raw city name.
// Total and deterministic: never fails, and Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(norm.NFC.String(raw)))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == 'ё':
			b.WriteRune('е')
		case r >= 'а' && r <= 'я':
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			// dropped, as is every rune outside а–я
		}
	}
	return b.String()
}
