package cache

import (
	"sync"
	"time"
)

// TagCache memoizes whole read results by key, with every key filed under
// a named invalidation tag. Invalidating a tag drops all keys under it in
// one step under the cache mutex, so a read issued after a write's
// invalidation can never observe the pre-write value.
type TagCache[T any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]*tagItem[T]
	tags  map[string]map[string]struct{}
}

type tagItem[T any] struct {
	data      T
	tag       string
	expiresAt time.Time
}

// NewTagCache creates a tag cache. A non-positive ttl disables expiry.
func NewTagCache[T any](ttl time.Duration) *TagCache[T] {
	return &TagCache[T]{
		ttl:   ttl,
		items: make(map[string]*tagItem[T]),
		tags:  make(map[string]map[string]struct{}),
	}
}

// Get retrieves a cached value.
func (c *TagCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	item, ok := c.items[key]
	if !ok {
		return zero, false
	}
	if !item.expiresAt.IsZero() && time.Now().After(item.expiresAt) {
		c.remove(key, item.tag)
		return zero, false
	}
	return item.data, true
}

// Set stores a value under key and files the key under tag.
func (c *TagCache[T]) Set(key, tag string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.items[key]; ok && old.tag != tag {
		c.untag(key, old.tag)
	}

	item := &tagItem[T]{data: data, tag: tag}
	if c.ttl > 0 {
		item.expiresAt = time.Now().Add(c.ttl)
	}
	c.items[key] = item

	keys, ok := c.tags[tag]
	if !ok {
		keys = make(map[string]struct{})
		c.tags[tag] = keys
	}
	keys[key] = struct{}{}
}

// Delete removes a single key.
func (c *TagCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, ok := c.items[key]; ok {
		c.remove(key, item.tag)
	}
}

// InvalidateTag atomically drops every key filed under tag.
func (c *TagCache[T]) InvalidateTag(tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.tags[tag] {
		delete(c.items, key)
	}
	delete(c.tags, tag)
}

// Size returns the current number of cached keys.
func (c *TagCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// CleanExpired removes expired entries and returns how many were dropped.
func (c *TagCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, item := range c.items {
		if !item.expiresAt.IsZero() && now.After(item.expiresAt) {
			c.remove(key, item.tag)
			removed++
		}
	}
	return removed
}

// remove and untag require c.mu held.
func (c *TagCache[T]) remove(key, tag string) {
	delete(c.items, key)
	c.untag(key, tag)
}

func (c *TagCache[T]) untag(key, tag string) {
	if keys, ok := c.tags[tag]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(c.tags, tag)
		}
	}
}
