package canon

import (
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// Weights of the two similarity components
const (
	tokenWeight    = 0.7
	sequenceWeight = 0.3
)

// Similarity scores how likely two raw keys name the same parameter.
// It combines token-set Jaccard (primary) with a character-level sequence
// ratio on the lowercased strings (secondary); the result lies in [0,1].
func Similarity(a, b string) float64 {
	return tokenWeight*Jaccard(Tokens(a), Tokens(b)) +
		sequenceWeight*SequenceRatio(strings.ToLower(a), strings.ToLower(b))
}

// Tokens splits a key into lowercase alphanumeric runs. Hyphens and dots
// separate tokens like any other non-alphanumeric character.
func Tokens(s string) map[string]struct{} {
	s = strings.ToLower(s)
	s = strings.NewReplacer("-", " ", ".", " ").Replace(s)

	set := make(map[string]struct{})
	for _, tok := range tokenPattern.FindAllString(s, -1) {
		set[tok] = struct{}{}
	}
	return set
}

// Jaccard returns |a ∩ b| / |a ∪ b|, or 0 when both sets are empty
func Jaccard(a, b map[string]struct{}) float64 {
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		union = 1
	}
	return float64(inter) / float64(union)
}

// SequenceRatio is difflib's Ratcliff/Obershelp ratio 2*M/T over the runes of a and b
func SequenceRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}
