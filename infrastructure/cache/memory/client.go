// ABOUTME: In-memory cache implementation backed by patrickmn/go-cache
// ABOUTME: Provides a process-local cache with TTL support and periodic cleanup

package memory

import (
	"context"
	"time"

	"readaloud-api/core/interfaces"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultCleanupInterval is how often expired items are purged
const DefaultCleanupInterval = 10 * time.Minute

// MemoryCache implements the Cache interface using in-memory storage
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a new in-memory cache instance
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithCleanup(DefaultCleanupInterval)
}

// NewMemoryCacheWithCleanup creates a cache that purges expired items every
// cleanupInterval
func NewMemoryCacheWithCleanup(cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value, ok := c.cache.Get(key)
	if !ok {
		return nil, interfaces.ErrCacheMiss
	}

	stored, ok := value.([]byte)
	if !ok {
		return nil, interfaces.ErrCacheMiss
	}

	// Return a copy of the value
	result := make([]byte, len(stored))
	copy(result, stored)
	return result, nil
}

// Set stores a value in the cache with the given TTL. A zero TTL never expires.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	expiration := ttl
	if ttl <= 0 {
		expiration = gocache.NoExpiration
	}
	c.cache.Set(key, valueCopy, expiration)
	return nil
}

// Delete removes a key from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.cache.Delete(key)
	return nil
}

// ItemCount returns the number of items, including expired ones not yet purged
func (c *MemoryCache) ItemCount() int {
	return c.cache.ItemCount()
}
