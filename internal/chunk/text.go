// Package chunk splits local documentation, blog posts and forum threads into
// evidence passages written as JSONL.
package chunk

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	tokenPattern = regexp.MustCompile(`\w+|\S`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// Tokens splits text into word runs and single punctuation characters
func Tokens(text string) []string {
	return tokenPattern.FindAllString(text, -1)
}

// NormalizeSpace collapses whitespace runs into single spaces
func NormalizeSpace(s string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

// Windows cuts tokens into windows of at most size tokens, each starting
// overlap tokens before the previous one ended. Input that fits is returned
// as a single window.
func Windows(tokens []string, size, overlap int) [][]string {
	if size <= 0 || len(tokens) <= size {
		return [][]string{tokens}
	}
	if overlap >= size {
		overlap = size - 1
	}
	if overlap < 0 {
		overlap = 0
	}

	var out [][]string
	for i := 0; i < len(tokens); {
		j := min(len(tokens), i+size)
		out = append(out, tokens[i:j])
		if j == len(tokens) {
			break
		}
		i = j - overlap
	}
	return out
}

func joinWindows(windows [][]string) []string {
	out := make([]string, 0, len(windows))
	for _, w := range windows {
		out = append(out, strings.Join(w, " "))
	}
	return out
}

// FrontMatter holds the YAML header of a markdown file
type FrontMatter map[string]string

// SplitFrontMatter separates a leading "---" YAML block from the body. A
// header that is not valid YAML is left in the body.
func SplitFrontMatter(text string) (FrontMatter, string, error) {
	fm := FrontMatter{}
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	if !strings.HasPrefix(normalized, "---\n") {
		return fm, text, nil
	}

	rest := normalized[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return fm, text, nil
	}
	header := rest[:end]
	body := rest[end+len("\n---"):]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = ""
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(header), &raw); err != nil {
		return fm, text, fmt.Errorf("parse front matter: %w", err)
	}
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
		case time.Time:
			if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 {
				fm[k] = val.Format("2006-01-02")
			} else {
				fm[k] = val.Format(time.RFC3339)
			}
		default:
			fm[k] = strings.TrimSpace(fmt.Sprint(val))
		}
	}
	return fm, body, nil
}
