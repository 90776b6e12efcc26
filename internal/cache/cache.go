// Package cache provides a thread-safe TTL cache for embedding vectors.
// Skill names repeat heavily across tasks and candidates, so caching the
// vectors keeps repeated suggestion calls from recomputing or re-fetching
// the same embeddings.
package cache

import (
	"crypto/md5"
	"fmt"
	"sync"
	"time"
)

// VectorItem represents a cached embedding with expiration
type VectorItem struct {
	Vector    []float64 `json:"vector"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired checks if the cache item has expired
func (v *VectorItem) IsExpired() bool {
	return time.Now().After(v.ExpiresAt)
}

// VectorCache provides thread-safe embedding caching with TTL
type VectorCache struct {
	mu    sync.RWMutex
	items map[string]*VectorItem
	ttl   time.Duration
}

// NewVectorCache creates a new cache with the specified TTL
func NewVectorCache(ttl time.Duration) *VectorCache {
	c := &VectorCache{
		items: make(map[string]*VectorItem),
		ttl:   ttl,
	}

	// Start cleanup goroutine
	go c.cleanup()

	return c
}

// cleanup removes expired items periodically
func (c *VectorCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		for key, item := range c.items {
			if item.IsExpired() {
				delete(c.items, key)
			}
		}
		c.mu.Unlock()
	}
}

// Key creates a consistent cache key from the input text
func Key(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}

// Get retrieves an embedding from the cache
func (c *VectorCache) Get(key string) ([]float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists || item.IsExpired() {
		if exists && item.IsExpired() {
			go func() {
				c.mu.Lock()
				delete(c.items, key)
				c.mu.Unlock()
			}()
		}
		return nil, false
	}

	return item.Vector, true
}

// Set stores an embedding in the cache
func (c *VectorCache) Set(key string, vector []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &VectorItem{
		Vector:    vector,
		ExpiresAt: time.Now().Add(c.ttl),
	}
}

// Delete removes an item from the cache
func (c *VectorCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Clear removes all items from the cache
func (c *VectorCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*VectorItem)
}

// Size returns the number of items in the cache
func (c *VectorCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Stats returns cache statistics
func (c *VectorCache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	totalItems := len(c.items)
	expiredItems := 0

	for _, item := range c.items {
		if item.IsExpired() {
			expiredItems++
		}
	}

	return map[string]interface{}{
		"total_items":   totalItems,
		"expired_items": expiredItems,
		"active_items":  totalItems - expiredItems,
		"ttl_seconds":   c.ttl.Seconds(),
	}
}
