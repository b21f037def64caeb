package cache

import (
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	DefaultTTL      = 5 * time.Minute
	cleanupInterval = 10 * time.Minute
)

// Cache is an in-process TTL cache for generated artefacts such as
// prompt to SQL translations.
type Cache struct {
	cache *cache.Cache
}

// New creates a cache; ttl <= 0 uses DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		cache: cache.New(ttl, cleanupInterval),
	}
}

// GetString returns a cached string; entries of another type count as misses.
func (c *Cache) GetString(key string) (string, bool) {
	v, found := c.cache.Get(key)
	if !found {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (c *Cache) SetDefault(key string, value string) {
	c.cache.Set(key, value, cache.DefaultExpiration)
}

func (c *Cache) Delete(key string) {
	c.cache.Delete(key)
}

func (c *Cache) Len() int {
	return c.cache.ItemCount()
}
