package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

const (
	ValidationCacheTTL = 5 * time.Minute
	AnalysisCacheTTL   = 30 * time.Minute
	PromptCacheTTL     = time.Hour
)

// Cache is the injection point for the process-local result cache. A
// multi-process deployment can swap in a shared implementation without
// touching call sites.
type Cache interface {
	Get(key string) (string, bool)
	Set(key, value string, ttl time.Duration)
	Evict(key string)
}

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is a TTL-bound in-memory cache. Expiry is checked lazily on
// read; there is no background sweep. Writes are last-writer-wins, which is
// acceptable because cached values are idempotent results of pure calls.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time // injectable for tests
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return "", false
	}
	return entry.value, true
}

func (c *MemoryCache) Set(key, value string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, expiresAt: c.now().Add(ttl)}
}

func (c *MemoryCache) Evict(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// HashKey derives a deterministic, low-collision cache key from the
// semantically relevant parts of an input.
func HashKey(parts ...string) string {
	h := sha256.New()
	h.Write([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(h.Sum(nil))
}
