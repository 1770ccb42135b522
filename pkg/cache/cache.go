// Package cache provides the process-scoped caches shared by the normalizer
// and the enrichment resolver. Both implementations are safe for concurrent
// use; values are expected to be idempotent for a key, so last writer wins.
package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Store is a concurrent key/value cache.
type Store[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V)
	Len() int
}

// Map is an unbounded Store. Entries live for the lifetime of the process.
type Map[V any] struct {
	mu sync.RWMutex
	m  map[string]V
}

// NewMap returns an empty Map.
func NewMap[V any]() *Map[V] {
	return &Map[V]{m: make(map[string]V)}
}

func (c *Map[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	v, ok := c.m[key]
	c.mu.RUnlock()
	return v, ok
}

func (c *Map[V]) Set(key string, value V) {
	c.mu.Lock()
	c.m[key] = value
	c.mu.Unlock()
}

func (c *Map[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// LRU is a bounded Store that evicts the least recently used entry.
// Only suitable for values that can be recomputed deterministically.
type LRU[V any] struct {
	c *lru.Cache[string, V]
}

// NewLRU returns an LRU holding at most size entries. A non-positive size
// falls back to an unbounded Map.
func NewLRU[V any](size int) (Store[V], error) {
	if size <= 0 {
		return NewMap[V](), nil
	}
	c, err := lru.New[string, V](size)
	if err != nil {
		return nil, err
	}
	return &LRU[V]{c: c}, nil
}

func (c *LRU[V]) Get(key string) (V, bool) { return c.c.Get(key) }

func (c *LRU[V]) Set(key string, value V) { c.c.Add(key, value) }

func (c *LRU[V]) Len() int { return c.c.Len() }
