package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/pdu3/AstarML/internal/model"
)

// Value shapes the rule-based extractor accepts: a number with an optional
// unit, or a boolean-like word
const valuePattern = `(\d+(?:\.\d+)?(?:\s*(?:milliseconds|ms|seconds|secs|sec|s|minutes|mins|min|hours|h|days|d))?|on|off|true|false|enabled|disabled)\b`

const keyPattern = `((?:[A-Za-z_][\w.\-]*\s+){0,2}[A-Za-z_][\w.\-]*)`

var (
	assignmentRule = regexp.MustCompile(`(?i)([A-Za-z_][\w.\-]*)\s*[=:]\s*` + valuePattern)
	setRule        = regexp.MustCompile(`(?i)\bset\s+` + keyPattern + `\s+to\s+` + valuePattern)
	phraseRule     = regexp.MustCompile(`(?i)\b` + keyPattern + `\s+(?:defaults\s+to|default\s+is|is\s+set\s+to|should\s+be|must\s+be|of|is)\s+` + valuePattern)
)

// Leading words stripped from phrase keys
var keyStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "default": true, "your": true,
	"our": true, "its": true, "this": true, "use": true, "and": true,
}

// Keys that are never parameters
var rejectedKeys = map[string]bool{
	"it": true, "that": true, "which": true, "there": true, "what": true,
	"version": true, "step": true, "page": true, "example": true,
}

// ClaimExtractor finds config-like claims with surface patterns
// ("timeout = 60s", "set retries to 3", "the batch size defaults to 32").
// It needs no network access and is used when no model provider is configured.
type ClaimExtractor struct{}

// NewClaimExtractor creates a rule-based extractor
func NewClaimExtractor() *ClaimExtractor {
	return &ClaimExtractor{}
}

// Name identifies the extractor in logs and cache keys
func (e *ClaimExtractor) Name() string {
	return "heuristic"
}

// Extract scans each sentence of text for claims
func (e *ClaimExtractor) Extract(ctx context.Context, text string) ([]model.Triple, error) {
	if Blank(text) {
		return nil, nil
	}

	var triples []model.Triple
	for _, sentence := range splitSentences(text) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		triples = append(triples, claimsInSentence(sentence)...)
	}
	return dedupeTriples(triples), nil
}

func claimsInSentence(sentence string) []model.Triple {
	var out []model.Triple

	add := func(key, val string) {
		key = cleanKey(key)
		if key == "" {
			return
		}
		out = append(out, model.Triple{
			Key:      key,
			Value:    strings.TrimSpace(val),
			Sentence: sentence,
		})
	}

	for _, m := range assignmentRule.FindAllStringSubmatch(sentence, -1) {
		add(m[1], m[2])
	}
	for _, m := range setRule.FindAllStringSubmatch(sentence, -1) {
		add(m[1], m[2])
	}
	for _, m := range phraseRule.FindAllStringSubmatch(sentence, -1) {
		add(m[1], m[2])
	}
	return out
}

// cleanKey lowercases the key and strips leading stopwords
func cleanKey(key string) string {
	words := strings.Fields(strings.ToLower(key))
	for len(words) > 0 && keyStopwords[words[0]] {
		words = words[1:]
	}
	if len(words) == 0 {
		return ""
	}

	k := strings.Trim(strings.Join(words, " "), ".-")
	if k == "" || rejectedKeys[k] {
		return ""
	}
	return k
}

// splitSentences splits on sentence terminators followed by whitespace and on
// line breaks, so dotted keys and decimals stay intact
func splitSentences(text string) []string {
	var sentences []string

	for _, line := range strings.Split(text, "\n") {
		var current strings.Builder
		runes := []rune(line)
		for i, r := range runes {
			current.WriteRune(r)
			if (r == '.' || r == '!' || r == '?') && (i+1 == len(runes) || runes[i+1] == ' ' || runes[i+1] == '\t') {
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
	}

	return sentences
}

// dedupeTriples keeps the first occurrence of each (key, value) pair
func dedupeTriples(triples []model.Triple) []model.Triple {
	seen := make(map[string]bool)
	var unique []model.Triple

	for _, t := range triples {
		k := strings.ToLower(t.Key) + "\x00" + strings.ToLower(t.Value)
		if !seen[k] {
			seen[k] = true
			unique = append(unique, t)
		}
	}

	return unique
}
