package catalog

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Scorer computes a 0-100 similarity between two already-normalized names.
// It is an interface so the string-distance algorithm can be swapped or tuned
// without touching matcher logic.
type Scorer interface {
	Score(a, b string) int
}

// TokenSortScorer scores names with a token-order-insensitive ratio: each
// name's words are sorted alphabetically before an edit-distance comparison,
// so "homem aranha deluxe" and "deluxe homem aranha" score 100.
type TokenSortScorer struct{}

// Score implements Scorer.
func (TokenSortScorer) Score(a, b string) int {
	return fuzzy.TokenSortRatio(a, b)
}

// NormalizeName lower-cases and trims a name for comparison.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
