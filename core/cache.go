package core

import (
	"strings"
	"sync"
	"time"
)

// CacheEntry represents a cached listing with expiration
type CacheEntry struct {
	Names     []string
	ExpiresAt time.Time
}

// IsExpired checks if the cache entry has expired
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// ListingCache provides a simple in-memory cache for bucket and key listings
// with TTL support
type ListingCache struct {
	cache    map[string]*CacheEntry
	mu       sync.RWMutex
	ttl      time.Duration
	maxSize  int
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewListingCache creates a new listing cache with the specified TTL and max size
func NewListingCache(ttl time.Duration, maxSize int) *ListingCache {
	cache := &ListingCache{
		cache:    make(map[string]*CacheEntry),
		ttl:      ttl,
		maxSize:  maxSize,
		stopChan: make(chan struct{}),
	}

	go cache.cleanupExpiredEntries()

	return cache
}

// Get retrieves a listing from the cache. The returned slice must not be modified.
func (c *ListingCache) Get(name string) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.cache[name]
	if !exists || entry.IsExpired() {
		return nil, false
	}

	return entry.Names, true
}

// Set stores a listing in the cache
func (c *ListingCache) Set(name string, names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.cache[name]; !exists && len(c.cache) >= c.maxSize {
		c.evictOneEntry()
	}

	c.cache[name] = &CacheEntry{
		Names:     names,
		ExpiresAt: time.Now().Add(c.ttl),
	}
}

// Invalidate removes a listing from the cache
func (c *ListingCache) Invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.cache, name)
}

// InvalidatePrefix removes all listings whose name starts with prefix
func (c *ListingCache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name := range c.cache {
		if strings.HasPrefix(name, prefix) {
			delete(c.cache, name)
		}
	}
}

// Len returns the number of cached listings, expired ones included
func (c *ListingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.cache)
}

// Stop ends the background cleanup
func (c *ListingCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

// evictOneEntry removes one entry to make space (caller must hold lock)
func (c *ListingCache) evictOneEntry() {
	now := time.Now()

	for name, entry := range c.cache {
		if now.After(entry.ExpiresAt) {
			delete(c.cache, name)
			return
		}
	}

	var oldest string
	var oldestAt time.Time
	for name, entry := range c.cache {
		if oldest == "" || entry.ExpiresAt.Before(oldestAt) {
			oldest, oldestAt = name, entry.ExpiresAt
		}
	}
	delete(c.cache, oldest)
}

// cleanupExpiredEntries runs periodically to clean up expired cache entries
func (c *ListingCache) cleanupExpiredEntries() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.performCleanup()
		case <-c.stopChan:
			return
		}
	}
}

// performCleanup removes expired entries from the cache
func (c *ListingCache) performCleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for name, entry := range c.cache {
		if now.After(entry.ExpiresAt) {
			delete(c.cache, name)
		}
	}
}
