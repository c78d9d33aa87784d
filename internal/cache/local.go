package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// LocalCache is the in-process Store used when Redis is not configured.
type LocalCache struct {
	cache *gocache.Cache
}

func NewLocalCache(defaultTTL, cleanupInterval time.Duration) *LocalCache {
	return &LocalCache{cache: gocache.New(defaultTTL, cleanupInterval)}
}

func (c *LocalCache) Get(key string) ([]byte, error) {
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, nil
	}
	b, _ := v.([]byte)
	return b, nil
}

func (c *LocalCache) Set(key string, value []byte, ttl time.Duration) error {
	c.cache.Set(key, value, ttl)
	return nil
}

func (c *LocalCache) Delete(key string) error {
	c.cache.Delete(key)
	return nil
}
