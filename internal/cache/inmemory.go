package cache

import (
	"context"
	"sync"
	"time"

	goCache "github.com/patrickmn/go-cache"
)

// DefaultExpiration is the default expiration time for cache entries
const DefaultExpiration = 30 * time.Minute

// DefaultCleanupInterval is how often expired items are removed from the cache
const DefaultCleanupInterval = 1 * time.Hour

// InMemoryCache implements the Cache interface using github.com/patrickmn/go-cache
type InMemoryCache struct {
	cache *goCache.Cache

	// refreshing tracks keys currently being refreshed so readers can keep
	// serving the stale entry while one producer rebuilds it
	mu         sync.Mutex
	refreshing map[string]struct{}
}

// Global cache instance
var (
	globalCache *InMemoryCache
	once        sync.Once
)

// NewInMemoryCache returns the process-wide cache instance
func NewInMemoryCache() *InMemoryCache {
	once.Do(func() {
		globalCache = &InMemoryCache{
			cache:      goCache.New(DefaultExpiration, DefaultCleanupInterval),
			refreshing: make(map[string]struct{}),
		}
	})
	return globalCache
}

// Get retrieves a value from the cache
func (c *InMemoryCache) Get(_ context.Context, key string) (interface{}, bool) {
	return c.cache.Get(key)
}

// Set adds a value to the cache with the specified expiration
func (c *InMemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) {
	c.cache.Set(key, value, expiration)
}

// Delete removes a key from the cache
func (c *InMemoryCache) Delete(_ context.Context, key string) {
	c.cache.Delete(key)
}

// Flush removes all items from the cache
func (c *InMemoryCache) Flush(_ context.Context) {
	c.cache.Flush()
}

// TryAcquireRefresh marks a key as being refreshed. It returns false when
// another producer already owns the refresh; callers should then serve the
// stale value instead of refreshing concurrently.
func (c *InMemoryCache) TryAcquireRefresh(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.refreshing[key]; busy {
		return false
	}
	c.refreshing[key] = struct{}{}
	return true
}

// ReleaseRefresh releases a refresh claim acquired with TryAcquireRefresh
func (c *InMemoryCache) ReleaseRefresh(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.refreshing, key)
}
