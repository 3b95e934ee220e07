package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheEntry pairs a value with its expiry.
type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is a fixed-size LRU cache whose entries also expire after a TTL.
type TTLCache[K comparable, V any] struct {
	lru *lru.Cache[K, cacheEntry[V]]
	now func() time.Time
}

// NewTTLCache creates a cache holding at most size entries.
func NewTTLCache[K comparable, V any](size int) (*TTLCache[K, V], error) {
	l, err := lru.New[K, cacheEntry[V]](size)
	if err != nil {
		return nil, err
	}
	return &TTLCache[K, V]{lru: l, now: time.Now}, nil
}

// Set stores value until ttl elapses.
func (c *TTLCache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.lru.Add(key, cacheEntry[V]{value: value, expiresAt: c.now().Add(ttl)})
}

// Get returns false for missing or expired keys.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	var zero V
	entry, ok := c.lru.Get(key)
	if !ok {
		return zero, false
	}

	if c.now().After(entry.expiresAt) {
		c.lru.Remove(key)
		return zero, false
	}
	return entry.value, true
}

func (c *TTLCache[K, V]) Delete(key K) {
	c.lru.Remove(key)
}
