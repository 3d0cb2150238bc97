package cache

import (
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// RWMutexTTLCache is a RWMutexCache whose entries expire.
// Expired entries are invisible to Get but only reclaimed by Sweep.
type RWMutexTTLCache[K comparable, V any] struct {
	data       *RWMutexCache[K, entry[V]]
	DefaultTTL time.Duration
	now        func() time.Time
}

func NewRWMutexTTLCache[K comparable, V any](defaultTTL time.Duration) *RWMutexTTLCache[K, V] {
	return &RWMutexTTLCache[K, V]{
		data:       NewRWMutexCache[K, entry[V]](),
		DefaultTTL: defaultTTL,
		now:        time.Now,
	}
}

func (c *RWMutexTTLCache[K, V]) Get(key K) (V, bool) {
	x, found := c.data.Get(key)
	if !found || c.expired(x) {
		var zero V
		return zero, false
	}
	return x.value, true
}

func (c *RWMutexTTLCache[K, V]) Put(key K, value V) {
	c.PutWithTTL(key, value, c.DefaultTTL)
}

func (c *RWMutexTTLCache[K, V]) PutWithTTL(key K, value V, ttl time.Duration) {
	c.data.Put(key, entry[V]{
		value:     value,
		expiresAt: c.now().Add(ttl),
	})
}

func (c *RWMutexTTLCache[K, V]) Delete(key K) {
	c.data.Delete(key)
}

// Sweep drops every expired entry and returns how many were dropped.
func (c *RWMutexTTLCache[K, V]) Sweep() int {
	return c.data.DeleteIf(func(_ K, e entry[V]) bool {
		return c.expired(e)
	})
}

func (c *RWMutexTTLCache[K, V]) Len() int {
	return c.data.Len()
}

func (c *RWMutexTTLCache[K, V]) expired(e entry[V]) bool {
	return !e.expiresAt.After(c.now())
}
