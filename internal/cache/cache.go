package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache defines the interface for caching operations
type Cache interface {
	Get(key string) (any, bool)
	// Add stores value only if key is absent and reports whether it did
	Add(key string, value any, ttl time.Duration) bool
	Delete(key string)
	Len() int
}

// TTLCache implements Cache interface with time-to-live support
type TTLCache struct {
	data *gocache.Cache
}

// New creates a new TTL cache with default cleanup interval
func New(defaultTTL time.Duration) *TTLCache {
	cleanupInterval := defaultTTL * 2
	return &TTLCache{
		data: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a value from the cache
func (c *TTLCache) Get(key string) (any, bool) {
	return c.data.Get(key)
}

// Add stores value under key unless an unexpired entry exists. The check and
// the write are atomic.
func (c *TTLCache) Add(key string, value any, ttl time.Duration) bool {
	return c.data.Add(key, value, ttl) == nil
}

// Delete removes a value from the cache
func (c *TTLCache) Delete(key string) {
	c.data.Delete(key)
}

// Len returns the number of cached items, including expired ones not yet cleaned up
func (c *TTLCache) Len() int {
	return c.data.ItemCount()
}
