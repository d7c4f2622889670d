// internal/cities/index.go
//
// City dictionary loading and indexing.
//
// Responsibilities:
//   - Load the city list from an environment-provided JSON file or fall back
//     to the embedded default list.
//   - Build an immutable Index: the set of normalized names plus a
//     partition-by-first-letter bucket map for continuation checks.
//   - Lint the raw list (empty entries, duplicates) for startup diagnostics.
//
// The city list format is the one the bot has always used: a single JSON
// array of city-name strings.
//
// Environment variables:
//   CITIES_FILE=/path/to/cities.json
//
// Constraints:
//   • The Index is built once at startup and never mutated afterwards,
//     so concurrent reads need no locking.
//   • A missing or malformed CITIES_FILE is a fatal startup condition.

package cities

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// Embedded default list so the server runs with no configuration at all.
//
//go:embed default_cities.json
var embeddedCities []byte

// Index is the read-only city dictionary: every normalized name, plus the
// same names partitioned by their first letter.
type Index struct {
	all     map[string]struct{}
	byFirst map[rune]map[string]struct{}
}

// Build normalizes names, discards empties, deduplicates, and buckets the
// survivors by first letter. Input order is irrelevant.
func Build(names []string) *Index {
	ix := &Index{
		all:     make(map[string]struct{}, len(names)),
		byFirst: make(map[rune]map[string]struct{}),
	}
	for _, raw := range names {
		n := Normalize(raw)
		if n == "" {
			continue
		}
		if _, dup := ix.all[n]; dup {
			continue
		}
		ix.all[n] = struct{}{}
		first, _ := utf8.DecodeRuneInString(n)
		bucket := ix.byFirst[first]
		if bucket == nil {
			bucket = make(map[string]struct{})
			ix.byFirst[first] = bucket
		}
		bucket[n] = struct{}{}
	}
	return ix
}

// Contains reports whether a normalized name is in the dictionary.
func (ix *Index) Contains(name string) bool {
	_, ok := ix.all[name]
	return ok
}

// Bucket returns the set of dictionary names starting with letter.
// The returned map is shared and must not be modified.
func (ix *Index) Bucket(letter rune) map[string]struct{} {
	return ix.byFirst[letter]
}

// Stats returns counts of indexed names and populated first-letter buckets.
func (ix *Index) Stats() (names int, letters int) {
	return len(ix.all), len(ix.byFirst)
}

// LoadNames reads the raw city list.
// With path set it must parse, otherwise the embedded default is used.
func LoadNames(path string) ([]string, error) {
	data := embeddedCities
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read cities file: %w", err)
		}
		data = b
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("parse cities list: %w", err)
	}
	if len(names) == 0 {
		return nil, errors.New("cities: list is empty")
	}
	return names, nil
}

// Lint reports non-fatal problems in a raw city list: blank entries,
// surrounding whitespace, and case-insensitive duplicates. One line per issue.
func Lint(names []string) []string {
	var issues []string
	seen := make(map[string]struct{}, len(names))
	for i, raw := range names {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			issues = append(issues, fmt.Sprintf("[%d] empty entry", i))
			continue
		}
		if trimmed != raw {
			issues = append(issues, fmt.Sprintf("[%d] surrounding whitespace: %q", i, raw))
		}
		lower := strings.ToLower(trimmed)
		if _, dup := seen[lower]; dup {
			issues = append(issues, fmt.Sprintf("[%d] duplicate: %q", i, trimmed))
			continue
		}
		seen[lower] = struct{}{}
	}
	return issues
}
