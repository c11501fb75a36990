package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/pdu3/AstarML/internal/model"
)

// KeyPrefix namespaces every key written by this package. Bump the version
// when the cached payload format changes.
const KeyPrefix = "astarml:v1:"

// Cache stores extraction results keyed by CacheKey
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// CacheKey derives a stable key from its parts (e.g. provider, model, passage text)
func CacheKey(kind string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return KeyPrefix + kind + ":" + hex.EncodeToString(h.Sum(nil))
}

// New builds the cache described by cfg: memory, then disk, then redis when a
// URL is set. A disabled config yields a nil cache and no error.
func New(cfg model.CacheConfig) (Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	layers := []Cache{NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)}
	if strings.TrimSpace(cfg.Dir) != "" {
		layers = append(layers, NewDiskCache(cfg.Dir, cfg.DiskTTL))
	}
	if strings.TrimSpace(cfg.RedisURL) != "" {
		rc, err := NewRedisCacheFromURL(cfg.RedisURL, cfg.DiskTTL)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		layers = append(layers, rc)
	}
	return NewLayeredCache(layers...), nil
}
