package enrich

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/japaniel/lexindex/pkg/freq"
)

// MinZipf is the lowest target-language frequency accepted for a
// single-word translation.
const MinZipf = 1.5

var markerPrefixes = []string{
	"plural:", "feminine:", "masculine:", "singular:",
	"root:", "prefix:", "suffix:", "form of",
}

// Clean collapses whitespace and strips brackets and trailing punctuation.
func Clean(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Trim(s, "[]")
	s = strings.TrimRight(s, "?!.,;:")
	return strings.TrimSpace(s)
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func hasMarker(s string) bool {
	l := strings.ToLower(s)
	for _, m := range markerPrefixes {
		if strings.HasPrefix(l, m) {
			return true
		}
	}
	return false
}

// Sanitize cleans a translation candidate for lemma and reports whether it
// is acceptable. A frequency check against target is applied only when o
// has a list for that language.
func Sanitize(candidate, lemma, target string, o freq.Oracle) (string, bool) {
	c := Clean(candidate)
	if c == "" || strings.EqualFold(c, strings.TrimSpace(lemma)) {
		return "", false
	}
	if strings.HasPrefix(candidate, "[") || hasMarker(c) || !hasLetter(c) {
		return "", false
	}
	words := strings.Fields(c)
	if utf8.RuneCountInString(lemma) <= 4 && len(words) > 4 {
		return "", false
	}
	if len(words) == 1 && o != nil && o.Has(target) {
		if z, _ := o.Zipf(strings.ToLower(c), target); z < MinZipf {
			return "", false
		}
	}
	return c, true
}

// SanitizeDefinition cleans a definition. Definitions are glosses, so only
// structural checks apply.
func SanitizeDefinition(candidate, lemma string) (string, bool) {
	c := strings.Join(strings.Fields(candidate), " ")
	if c == "" || strings.EqualFold(c, strings.TrimSpace(lemma)) {
		return "", false
	}
	if hasMarker(c) || !hasLetter(c) {
		return "", false
	}
	return c, true
}
