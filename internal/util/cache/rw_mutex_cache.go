package cache

import (
	"sync"
)

// RWMutexCache is a map guarded by a sync.RWMutex.
type RWMutexCache[K comparable, V any] struct {
	data map[K]V
	mu   sync.RWMutex
}

func NewRWMutexCache[K comparable, V any]() *RWMutexCache[K, V] {
	return &RWMutexCache[K, V]{
		data: map[K]V{},
	}
}

func (c *RWMutexCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	x, found := c.data[key]
	return x, found
}

// Put stores value and returns the previous value, if any.
func (c *RWMutexCache[K, V]) Put(key K, value V) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	x, found := c.data[key]
	c.data[key] = value
	return x, found
}

func (c *RWMutexCache[K, V]) Delete(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	x, found := c.data[key]
	delete(c.data, key)
	return x, found
}

// DeleteIf removes every entry for which fn returns true and returns how many were removed.
func (c *RWMutexCache[K, V]) DeleteIf(fn func(key K, value V) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, v := range c.data {
		if fn(k, v) {
			delete(c.data, k)
			removed++
		}
	}
	return removed
}

func (c *RWMutexCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
