// Package cache provides a small content cache for loaded documents so
// repeated runs (watch mode in particular) skip re-reading and
// re-flattening unchanged files.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is the loader-facing caching interface.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Clear()
}

// Key derives a cache key from a file's identity: path plus size and
// modification time, so any change to the file misses the cache.
func Key(path string, size int64, modTime time.Time) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", path, size, modTime.UnixNano())))
	return "chartfact:v1:" + hex.EncodeToString(hash[:])
}

// Memory is an in-memory Cache with per-entry TTL.
type Memory struct {
	cache *gocache.Cache
}

// NewMemory creates a memory cache.
func NewMemory(defaultTTL, cleanupInterval time.Duration) *Memory {
	return &Memory{cache: gocache.New(defaultTTL, cleanupInterval)}
}

// Get retrieves a value from the cache.
func (c *Memory) Get(key string) ([]byte, bool) {
	if val, found := c.cache.Get(key); found {
		return val.([]byte), true
	}
	return nil, false
}

// Set stores a value with the given TTL.
func (c *Memory) Set(key string, value []byte, ttl time.Duration) {
	c.cache.Set(key, value, ttl)
}

// Clear removes all entries.
func (c *Memory) Clear() {
	c.cache.Flush()
}
