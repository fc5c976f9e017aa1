// Package cache holds the collection lists shown by the console, keyed by
// collection, with dependency-driven invalidation.
package cache

import (
	"slices"
	"sync"

	"github.com/starford/curator/internal/models"
)

// InvalidateFunc is called for every key removed by Invalidate.
type InvalidateFunc func(key string)

// Cache is a concurrency-safe map of collection key to ordered items.
// Values are copied on the way in and out so callers never share backing
// arrays with the cache.
type Cache struct {
	mu      sync.RWMutex
	entries map[string][]models.OrderedItem
	deps    map[string]map[string]struct{}
	hook    InvalidateFunc
}

// New creates an empty cache. hook may be nil.
func New(hook InvalidateFunc) *Cache {
	return &Cache{
		entries: make(map[string][]models.OrderedItem),
		deps:    make(map[string]map[string]struct{}),
		hook:    hook,
	}
}

// Get returns a copy of the list stored under key.
func (c *Cache) Get(key string) ([]models.OrderedItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	items, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return slices.Clone(items), true
}

// Set stores a copy of items under key.
func (c *Cache) Set(key string, items []models.OrderedItem) {
	cp := slices.Clone(items)
	if cp == nil {
		cp = []models.OrderedItem{}
	}
	c.mu.Lock()
	c.entries[key] = cp
	c.mu.Unlock()
}

// Depend registers dependent as derived from on: invalidating on also
// invalidates dependent, transitively.
func (c *Cache) Depend(dependent, on string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.deps[on]
	if !ok {
		set = make(map[string]struct{})
		c.deps[on] = set
	}
	set[dependent] = struct{}{}
}

// Invalidate drops key and everything that depends on it. The hook runs
// after the lock is released.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	removed := c.collect(key, nil, map[string]bool{})
	for _, k := range removed {
		delete(c.entries, k)
	}
	c.mu.Unlock()

	if c.hook != nil {
		for _, k := range removed {
			c.hook(k)
		}
	}
}

// InvalidateDependents drops everything derived from key but keeps key.
func (c *Cache) InvalidateDependents(key string) {
	c.mu.Lock()
	removed := c.collect(key, nil, map[string]bool{})[1:]
	for _, k := range removed {
		delete(c.entries, k)
	}
	c.mu.Unlock()

	if c.hook != nil {
		for _, k := range removed {
			c.hook(k)
		}
	}
}

func (c *Cache) collect(key string, out []string, seen map[string]bool) []string {
	if seen[key] {
		return out
	}
	seen[key] = true
	out = append(out, key)
	for dep := range c.deps[key] {
		out = c.collect(dep, out, seen)
	}
	return out
}

// Keys returns the cached keys, sorted.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
