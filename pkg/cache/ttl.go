package cache

import (
	"sync"
	"time"
)

// TTLCache is a small in-memory cache with per-entry expiry, used to keep
// repeated insights reads from re-aggregating community state on every call.
type TTLCache struct {
	mu    sync.RWMutex
	items map[string]cacheItem

	stop     chan struct{}
	stopOnce sync.Once
}

type cacheItem struct {
	value     interface{}
	expiresAt time.Time
}

// NewTTLCache creates a cache and starts its expiry sweeper
func NewTTLCache() *TTLCache {
	c := &TTLCache{
		items: make(map[string]cacheItem),
		stop:  make(chan struct{}),
	}
	go c.sweep()
	return c
}

// Get returns the cached value for key if it has not expired
func (c *TTLCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[key]
	if !ok || time.Now().After(item.expiresAt) {
		return nil, false
	}
	return item.value, true
}

// Set stores value under key for ttl
func (c *TTLCache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = cacheItem{value: value, expiresAt: time.Now().Add(ttl)}
}

// Delete removes key from the cache
func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Close stops the expiry sweeper
func (c *TTLCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *TTLCache) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, item := range c.items {
				if now.After(item.expiresAt) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}
