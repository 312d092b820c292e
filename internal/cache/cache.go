// Package cache provides the read-through cache used for rarely-changing
// roster data. Two backends exist: a process-local memory cache and an
// optional Redis one for multi-instance deployments. Writers to cached
// entities are required to call Invalidate; the cache has no write-through
// path and would otherwise serve stale data for up to one TTL.
package cache

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a get/set/invalidate view over short-lived memoized data.
// Values are marshaled through JSON so both backends behave identically.
type Cache interface {
	// Get unmarshals the cached value for key into out and reports whether
	// a live entry existed.
	Get(ctx context.Context, key string, out any) bool

	// Set stores val under key for ttl.
	Set(ctx context.Context, key string, val any, ttl time.Duration)

	// Invalidate drops every key matching pattern ("doctors:*" style,
	// path.Match syntax).
	Invalidate(ctx context.Context, pattern string)
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is a capacity-bounded in-process cache. When full it evicts in
// insertion order, not LRU: a hot entry that has lived past its welcome still
// leaves. Safe for concurrent use.
type MemoryCache struct {
	mu       sync.RWMutex
	entries  map[string]memoryEntry
	order    []string // insertion order, for eviction
	capacity int
}

// NewMemoryCache creates a memory cache holding at most capacity entries.
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = 128
	}
	return &MemoryCache{
		entries:  make(map[string]memoryEntry),
		capacity: capacity,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string, out any) bool {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return false
	}
	return json.Unmarshal(entry.data, out) == nil
}

func (c *MemoryCache) Set(_ context.Context, key string, val any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		for len(c.entries) >= c.capacity && len(c.order) > 0 {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = memoryEntry{data: data, expiresAt: time.Now().Add(ttl)}
}

func (c *MemoryCache) Invalidate(_ context.Context, pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.order[:0]
	for _, key := range c.order {
		if matched, _ := path.Match(pattern, key); matched {
			delete(c.entries, key)
			continue
		}
		kept = append(kept, key)
	}
	c.order = kept
}

// Len returns the number of entries, counting expired ones not yet evicted.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// RedisCache backs the same contract with Redis. Entries expire server-side;
// Invalidate scans for matching keys.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache wraps a Redis client. All keys are stored under prefix.
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "clinicbook:"
	}
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string, out any) bool {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), out) == nil
}

func (c *RedisCache) Set(ctx context.Context, key string, val any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.prefix+key, data, ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, pattern string) {
	iter := c.client.Scan(ctx, 0, c.prefix+pattern, 0).Iterator()
	for iter.Next(ctx) {
		_ = c.client.Del(ctx, iter.Val()).Err()
	}
}
