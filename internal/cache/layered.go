package cache

import (
	"context"
	"errors"
	"time"
)

// LayeredCache checks layers in order (fastest first) and writes through to all
type LayeredCache struct {
	layers []Cache
}

// NewLayeredCache creates a layered cache; nil layers are skipped
func NewLayeredCache(layers ...Cache) *LayeredCache {
	c := &LayeredCache{}
	for _, l := range layers {
		if l != nil {
			c.layers = append(c.layers, l)
		}
	}
	return c
}

// Get returns the first hit and promotes it into the faster layers
func (c *LayeredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	for i, l := range c.layers {
		val, found := l.Get(ctx, key)
		if !found {
			continue
		}
		for _, faster := range c.layers[:i] {
			_ = faster.Set(ctx, key, val, 0) // Layer default TTL
		}
		return val, true
	}
	return nil, false
}

// Set stores value in every layer
func (c *LayeredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var errs []error
	for _, l := range c.layers {
		if err := l.Set(ctx, key, value, ttl); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Delete removes key from every layer
func (c *LayeredCache) Delete(ctx context.Context, key string) error {
	var errs []error
	for _, l := range c.layers {
		if err := l.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clear empties every layer
func (c *LayeredCache) Clear(ctx context.Context) error {
	var errs []error
	for _, l := range c.layers {
		if err := l.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
