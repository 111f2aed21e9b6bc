// Package cache provides a generic, mutex-guarded in-memory memo for
// lookups that do not change during a run.
package cache

import (
	"context"
	"sync"
)

// Cache is safe for concurrent use.
type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{items: make(map[K]V)}
}

// Get returns the value stored under key.
func (c *Cache[K, V]) Get(_ context.Context, key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	return v, ok
}

// Set stores value under key until Close.
func (c *Cache[K, V]) Set(_ context.Context, key K, value V) {
	c.mu.Lock()
	c.items[key] = value
	c.mu.Unlock()
}

// Len returns the number of stored entries.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close drops every entry.
func (c *Cache[K, V]) Close() {
	c.mu.Lock()
	c.items = make(map[K]V)
	c.mu.Unlock()
}
