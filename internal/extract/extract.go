package extract

import (
	"context"
	"errors"
	"strings"

	"github.com/pdu3/AstarML/internal/model"
)

var (
	// ErrUnavailable wraps every failure of an extraction backend (network,
	// timeout, bad response). Callers treat it as "no claims for this passage".
	ErrUnavailable = errors.New("extractor unavailable")
)

// Extractor turns a passage into (key, value, sentence) triples
type Extractor interface {
	Extract(ctx context.Context, text string) ([]model.Triple, error)
	Name() string
}

// Func adapts a plain function to Extractor
type Func func(ctx context.Context, text string) ([]model.Triple, error)

// Extract calls f
func (f Func) Extract(ctx context.Context, text string) ([]model.Triple, error) {
	return f(ctx, text)
}

// Name identifies adapted functions
func (f Func) Name() string {
	return "func"
}

// Clean trims every triple and drops those with an empty key, value or
// sentence. It returns the kept triples in order and the number discarded.
func Clean(triples []model.Triple) ([]model.Triple, int) {
	kept := make([]model.Triple, 0, len(triples))
	for _, t := range triples {
		if !t.Valid() {
			continue
		}
		kept = append(kept, t.Trimmed())
	}
	return kept, len(triples) - len(kept)
}

// Blank reports whether a passage has nothing to extract. Extractors return
// no triples and no error for blank passages.
func Blank(text string) bool {
	return strings.TrimSpace(text) == ""
}
