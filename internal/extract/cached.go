package extract

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pdu3/AstarML/internal/cache"
	"github.com/pdu3/AstarML/internal/model"
)

// CachedExtractor memoizes successful extractions per (extractor, variant, text).
// Failures are never cached.
type CachedExtractor struct {
	next    Extractor
	cache   cache.Cache
	ttl     time.Duration
	variant string // e.g. model name, so switching models misses the cache
}

// NewCachedExtractor wraps next. A nil cache returns next unchanged.
func NewCachedExtractor(next Extractor, c cache.Cache, ttl time.Duration, variant string) Extractor {
	if c == nil {
		return next
	}
	return &CachedExtractor{next: next, cache: c, ttl: ttl, variant: variant}
}

// Extract returns cached triples or delegates and stores the result
func (e *CachedExtractor) Extract(ctx context.Context, text string) ([]model.Triple, error) {
	key := cache.CacheKey("extract", e.next.Name(), e.variant, text)

	if data, ok := e.cache.Get(ctx, key); ok {
		var triples []model.Triple
		if err := json.Unmarshal(data, &triples); err == nil {
			return triples, nil
		}
	}

	triples, err := e.next.Extract(ctx, text)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(triples); err == nil {
		_ = e.cache.Set(ctx, key, data, e.ttl)
	}
	return triples, nil
}

// Name reports the wrapped extractor's name
func (e *CachedExtractor) Name() string {
	return e.next.Name()
}
