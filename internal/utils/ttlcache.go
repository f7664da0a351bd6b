package utils

import (
	"sync"
	"time"
)

type cacheEntry[V any] struct {
	value   V
	expires time.Time
}

// TTLCache is a small expiring cache guarding repeated upstream lookups.
// Entries are evicted lazily on access.
type TTLCache[K comparable, V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[K]cacheEntry[V]
}

func NewTTLCache[K comparable, V any](ttl time.Duration) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		ttl:     ttl,
		entries: make(map[K]cacheEntry[V]),
	}
}

func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expires) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return entry.value, true
}

func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry[V]{
		value:   value,
		expires: time.Now().Add(c.ttl),
	}
}
