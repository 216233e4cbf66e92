// Package cache provides LRU caching for parsed pages. Page chains, forwarded
// rows and off-row trees revisit the same pages; the cache keeps the parse
// from being repeated.
package cache

import (
	"container/list"
	"sync"

	"github.com/FocuswithJustin/mdf/core/page"
)

// Cache is a generic LRU cache interface.
type Cache[K comparable, V any] interface {
	// Get retrieves a value from the cache.
	Get(key K) (V, bool)

	// Put stores a value in the cache.
	Put(key K, value V)

	// Remove removes a value from the cache.
	Remove(key K)

	// Clear removes all entries from the cache.
	Clear()

	// Len returns the number of entries in the cache.
	Len() int

	// Stats returns cache statistics.
	Stats() Stats
}

// Stats contains cache statistics.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	MaxSize   int
}

// Config contains cache configuration options.
type Config struct {
	// MaxSize is the maximum number of entries (0 = unlimited).
	MaxSize int

	// OnEvict is called when an entry is evicted.
	OnEvict func(key, value interface{})
}

// entry represents a cache entry.
type entry[K comparable, V any] struct {
	key   K
	value V
}

// lruCache is a thread-safe LRU cache implementation.
type lruCache[K comparable, V any] struct {
	mu        sync.RWMutex
	config    Config
	entries   map[K]*list.Element
	evictList *list.List
	stats     Stats
}

// NewLRUCache creates a new LRU cache with the given configuration.
func NewLRUCache[K comparable, V any](config Config) Cache[K, V] {
	if config.MaxSize < 0 {
		config.MaxSize = 0
	}

	return &lruCache[K, V]{
		config:    config,
		entries:   make(map[K]*list.Element),
		evictList: list.New(),
	}
}

// Get retrieves a value from the cache.
func (c *lruCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}

	c.evictList.MoveToFront(ent)
	c.stats.Hits++
	return ent.Value.(*entry[K, V]).value, true
}

// Put stores a value in the cache.
func (c *lruCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.evictList.MoveToFront(ent)
		ent.Value.(*entry[K, V]).value = value
		return
	}

	ent := c.evictList.PushFront(&entry[K, V]{key: key, value: value})
	c.entries[key] = ent

	if c.config.MaxSize > 0 && c.evictList.Len() > c.config.MaxSize {
		c.removeOldest()
	}
}

// Remove removes a value from the cache.
func (c *lruCache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.removeElement(ent)
	}
}

// Clear removes all entries from the cache.
func (c *lruCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*list.Element)
	c.evictList.Init()
	c.stats.Size = 0
}

// Len returns the number of entries in the cache.
func (c *lruCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.evictList.Len()
}

// Stats returns cache statistics.
func (c *lruCache[K, V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.stats
	s.Size = c.evictList.Len()
	s.MaxSize = c.config.MaxSize
	return s
}

// removeOldest removes the oldest entry from the cache.
func (c *lruCache[K, V]) removeOldest() {
	ent := c.evictList.Back()
	if ent != nil {
		c.removeElement(ent)
		c.stats.Evictions++
	}
}

// removeElement removes an element from the cache.
func (c *lruCache[K, V]) removeElement(ent *list.Element) {
	c.evictList.Remove(ent)
	e := ent.Value.(*entry[K, V])
	delete(c.entries, e.key)

	if c.config.OnEvict != nil {
		c.config.OnEvict(e.key, e.value)
	}
}

// PageCache is a specialized cache for parsed pages, keyed by location.
// Parsed pages are read-only, so a cached page never goes stale within one
// session.
type PageCache struct {
	cache Cache[page.Pointer, *page.Page]
}

// NewPageCache creates a page cache holding at most maxPages parsed pages.
func NewPageCache(maxPages int) *PageCache {
	return &PageCache{
		cache: NewLRUCache[page.Pointer, *page.Page](Config{MaxSize: maxPages}),
	}
}

// NewDefaultPageCache creates a page cache with a size suited to chain
// walking: enough for the hot interior of a large table plus its off-row
// pages.
func NewDefaultPageCache() *PageCache {
	return NewPageCache(256)
}

// Get fetches and parses a page through the provider, serving repeats from
// the cache.
func (c *PageCache) Get(pr page.Provider, ptr page.Pointer) (*page.Page, error) {
	if pg, ok := c.cache.Get(ptr); ok {
		return pg, nil
	}
	pg, err := page.Get(pr, ptr)
	if err != nil {
		return nil, err
	}
	c.cache.Put(ptr, pg)
	return pg, nil
}

// Remove drops one page from the cache.
func (c *PageCache) Remove(ptr page.Pointer) {
	c.cache.Remove(ptr)
}

// Clear drops every cached page.
func (c *PageCache) Clear() {
	c.cache.Clear()
}

// Len returns the number of cached pages.
func (c *PageCache) Len() int {
	return c.cache.Len()
}

// Stats returns cache statistics.
func (c *PageCache) Stats() Stats {
	return c.cache.Stats()
}
