package props

import (
	"sync"
	"sync/atomic"
)

// CacheMetrics provides observability for the session lookup cache.
//
// Implementations can use this interface to export hit/miss/invalidate
// counters. This is optional; when nil is supplied the session uses a
// built-in no-op implementation.
type CacheMetrics interface {
	// CacheHit records a lookup served from the cache
	CacheHit()

	// CacheMiss records a lookup that had to touch storage
	CacheMiss()

	// CacheInvalidate records a cache entry dropped by a write
	CacheInvalidate()
}

// noopCacheMetrics is a default no-op metrics implementation
type noopCacheMetrics struct{}

func (noopCacheMetrics) CacheHit()        {}
func (noopCacheMetrics) CacheMiss()       {}
func (noopCacheMetrics) CacheInvalidate() {}

// CacheStats is a point-in-time snapshot of cache counters.
type CacheStats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// lookupCache memoizes per-path lookup results for the lifetime of one
// session.
//
// Entries are removed, never updated, when a write touches their path,
// so a read after a write in the same session always goes back to
// storage. Empty results are cached too; a path known to hold nothing
// should not re-hit storage either.
//
// Thread safety:
// All operations are protected by RWMutex for safe concurrent use.
type lookupCache struct {
	mu      sync.RWMutex
	entries map[string][]Property

	hits   atomic.Uint64
	misses atomic.Uint64

	metrics CacheMetrics
}

func newLookupCache(metrics CacheMetrics) *lookupCache {
	if metrics == nil {
		metrics = noopCacheMetrics{}
	}
	return &lookupCache{
		entries: make(map[string][]Property),
		metrics: metrics,
	}
}

// get returns a copy of the cached result for path, if present. The
// copy keeps callers from mutating cached state through the returned
// slice.
func (c *lookupCache) get(path string) ([]Property, bool) {
	c.mu.RLock()
	cached, ok := c.entries[path]
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		c.metrics.CacheMiss()
		return nil, false
	}

	c.hits.Add(1)
	c.metrics.CacheHit()

	result := make([]Property, len(cached))
	copy(result, cached)
	return result, true
}

// put stores a copy of result under path, replacing any previous entry.
func (c *lookupCache) put(path string, result []Property) {
	entry := make([]Property, len(result))
	copy(entry, result)

	c.mu.Lock()
	c.entries[path] = entry
	c.mu.Unlock()
}

// invalidate drops the entry for path. Dropping an absent entry is a
// no-op and is not counted.
func (c *lookupCache) invalidate(path string) {
	c.mu.Lock()
	_, ok := c.entries[path]
	if ok {
		delete(c.entries, path)
	}
	c.mu.Unlock()

	if ok {
		c.metrics.CacheInvalidate()
	}
}

// clear drops every entry.
func (c *lookupCache) clear() {
	c.mu.Lock()
	c.entries = make(map[string][]Property)
	c.mu.Unlock()
}

// stats returns a snapshot of the cache counters.
func (c *lookupCache) stats() CacheStats {
	c.mu.RLock()
	entries := len(c.entries)
	c.mu.RUnlock()

	return CacheStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: entries,
	}
}
