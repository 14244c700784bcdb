// Package cache holds encoded standings and pairings responses in memory
// with a TTL and a weak ETag per entry.
//
// Entries are invalidated by prefix whenever the tournament changes. Every
// Purge advances a generation counter; readers capture it with Generation
// before loading and store with SetIfGen, so a snapshot taken before a
// write can never be cached after that write's purge.
package cache

import (
	"crypto/md5"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Cached reads are purged on every tournament write, so TTLs only bound
// staleness when a write happens in a process that cannot reach this one.
const (
	TTLStandings = 30 * time.Second
	TTLPairings  = 30 * time.Second
)

// Key prefixes for tournament reads.
const (
	PrefixStandings = "standings:"
	PrefixPairings  = "pairings:"
)

const evictInterval = 5 * time.Minute

type entry struct {
	data      []byte
	etag      string
	expiresAt time.Time
}

func (e entry) live(now time.Time) bool {
	return now.Before(e.expiresAt)
}

// Cache is a thread-safe in-memory TTL cache.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	gen     uint64
	enabled bool
}

// New creates a cache. A disabled cache stores nothing but still computes
// ETags.
func New(enabled bool) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		enabled: enabled,
	}
	if enabled {
		go c.evictLoop()
	}
	return c
}

// Get returns the live entry for key.
func (c *Cache) Get(key string) (data []byte, etag string, ok bool) {
	if !c.enabled {
		return nil, "", false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, found := c.entries[key]
	if !found || !e.live(time.Now()) {
		return nil, "", false
	}
	return e.data, e.etag, true
}

// Generation returns the current purge generation.
func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// SetIfGen stores data only if no Purge has run since gen was read. The
// ETag is returned either way; stored reports whether the entry was kept.
func (c *Cache) SetIfGen(key string, data []byte, ttl time.Duration, gen uint64) (etag string, stored bool) {
	etag = ComputeETag(data)
	if !c.enabled {
		return etag, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return etag, false
	}
	c.entries[key] = entry{data: data, etag: etag, expiresAt: time.Now().Add(ttl)}
	return etag, true
}

// Purge removes every entry whose key starts with prefix and advances the
// generation. An empty prefix clears the cache. Returns the number of
// entries removed.
func (c *Cache) Purge(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Stats reports key counts for the health endpoint.
func (c *Cache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	active := 0
	for _, e := range c.entries {
		if e.live(now) {
			active++
		}
	}
	return map[string]interface{}{
		"enabled":      c.enabled,
		"generation":   c.gen,
		"total_keys":   len(c.entries),
		"active_keys":  active,
		"expired_keys": len(c.entries) - active,
	}
}

func (c *Cache) evictLoop() {
	ticker := time.NewTicker(evictInterval)
	defer ticker.Stop()
	for range ticker.C {
		c.evict()
	}
}

func (c *Cache) evict() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for key, e := range c.entries {
		if !e.live(now) {
			delete(c.entries, key)
		}
	}
}

// ComputeETag derives a weak ETag from the first 8 bytes of the body's MD5.
func ComputeETag(data []byte) string {
	sum := md5.Sum(data)
	return fmt.Sprintf(`W/"%x"`, sum[:8])
}

// CheckETagMatch reports whether an If-None-Match value matches etag.
// Only a single ETag or "*" is recognised.
func CheckETagMatch(ifNoneMatch, etag string) bool {
	switch ifNoneMatch {
	case "":
		return false
	case "*":
		return true
	default:
		return ifNoneMatch == etag
	}
}
