// Package cache provides the in-process TTL cache used by the summary
// endpoints and the application layer.
//
// Keys are strings, values arbitrary. Every entry carries its own expiry;
// expired entries are evicted lazily on access. Invalidate removes whole
// key families by prefix, which is how mutations keep cached summaries
// consistent without tracking individual keys.
package cache

import (
	"strings"
	"sync"
	"time"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// Entry holds one cached value with its lifetime bounds.
type Entry struct {
	Key       string
	Value     any
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Cache is a thread-safe TTL cache with a maximum entry count.
// When full, the oldest entry by creation time is evicted.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]*Entry
	maxEntries int
	defaultTTL time.Duration
}

// New creates a cache with the given default TTL and capacity.
// Non-positive values fall back to 5 minutes and 1000 entries.
func New(defaultTTL time.Duration, maxEntries int) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &Cache{
		entries:    make(map[string]*Entry),
		maxEntries: maxEntries,
		defaultTTL: defaultTTL,
	}
}

// Get retrieves a value by key. Expired entries are removed and reported
// as a miss.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if timeNow().After(entry.ExpiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; another Set may have replaced it.
		if cur, still := c.entries[key]; still && cur == entry {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return entry.Value, true
}

// Set stores a value under the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetTTL(key, value, c.defaultTTL)
}

// SetTTL stores a value with an explicit TTL. A non-positive TTL uses
// the default.
func (c *Cache) SetTTL(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}

	now := timeNow()
	c.entries[key] = &Entry{
		Key:       key,
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Invalidate removes all entries whose key starts with pattern and
// returns how many were removed. A trailing "*" on the pattern is
// accepted and stripped, so "tasks:*" and "tasks:" behave the same.
// An empty pattern clears nothing; use Clear for that.
func (c *Cache) Invalidate(pattern string) int {
	prefix := strings.TrimSuffix(pattern, "*")
	if prefix == "" {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry)
}

// Size returns the number of live entries, purging expired ones.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := timeNow()
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
		}
	}
	return len(c.entries)
}

// evictOldest removes the oldest entry by creation time.
// Callers must hold the write lock.
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.CreatedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.CreatedAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
