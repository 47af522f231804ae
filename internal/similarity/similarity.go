// Package similarity scores how alike two names are using normalized
// Levenshtein distance over lower-cased strings.
package similarity

import (
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize lower-cases s. Lower-casing is the only normalization applied;
// accents and whitespace are significant.
func Normalize(s string) string {
	// Casers keep state and must not be shared between goroutines.
	return cases.Lower(language.Und).String(s)
}

// Distance is the unit-cost Levenshtein distance between the normalized
// forms of a and b, counted in runes.
func Distance(a, b string) int {
	return fuzzy.LevenshteinDistance(Normalize(a), Normalize(b))
}

// Score returns 1 - distance/max(len(a), len(b)), a value in [0,1] where 1
// means identical after lower-casing. Two empty strings score 1.
func Score(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)

	longest := max(utf8.RuneCountInString(na), utf8.RuneCountInString(nb))
	if longest == 0 {
		return 1
	}

	d := fuzzy.LevenshteinDistance(na, nb)
	return 1 - float64(d)/float64(longest)
}

// Above reports whether score clears threshold. The comparison is strict:
// a score equal to the threshold does not match.
func Above(score, threshold float64) bool {
	return score > threshold
}
