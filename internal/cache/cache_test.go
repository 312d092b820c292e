package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryCacheGetSet(t *testing.T) {
	c := NewMemoryCache(10)
	ctx := context.Background()

	type roster struct {
		Names []string `json:"names"`
	}

	c.Set(ctx, "doctors:active", roster{Names: []string{"a", "b"}}, time.Minute)

	var got roster
	if !c.Get(ctx, "doctors:active", &got) {
		t.Fatal("expected cache hit")
	}
	if len(got.Names) != 2 || got.Names[0] != "a" {
		t.Errorf("unexpected cached value: %v", got)
	}

	var missing roster
	if c.Get(ctx, "doctors:other", &missing) {
		t.Error("expected miss for unknown key")
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	c := NewMemoryCache(10)
	ctx := context.Background()

	c.Set(ctx, "k", "v", 20*time.Millisecond)

	var out string
	if !c.Get(ctx, "k", &out) {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(30 * time.Millisecond)

	if c.Get(ctx, "k", &out) {
		t.Error("expected miss after TTL expiry")
	}
}

func TestMemoryCacheZeroTTLNotStored(t *testing.T) {
	c := NewMemoryCache(10)
	ctx := context.Background()

	c.Set(ctx, "k", "v", 0)

	var out string
	if c.Get(ctx, "k", &out) {
		t.Error("zero TTL entry should not be stored")
	}
}

func TestMemoryCacheEvictsInInsertionOrder(t *testing.T) {
	c := NewMemoryCache(3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		c.Set(ctx, fmt.Sprintf("k%d", i), i, time.Minute)
	}

	// Touch k0 to prove eviction ignores recency.
	var v int
	if !c.Get(ctx, "k0", &v) {
		t.Fatal("expected k0 to be cached")
	}

	c.Set(ctx, "k3", 3, time.Minute)

	if c.Get(ctx, "k0", &v) {
		t.Error("k0 should have been evicted first despite being read last")
	}
	if !c.Get(ctx, "k1", &v) || !c.Get(ctx, "k3", &v) {
		t.Error("newer entries should survive eviction")
	}
	if c.Len() != 3 {
		t.Errorf("capacity exceeded: %d entries", c.Len())
	}
}

func TestMemoryCacheOverwriteDoesNotEvict(t *testing.T) {
	c := NewMemoryCache(2)
	ctx := context.Background()

	c.Set(ctx, "a", 1, time.Minute)
	c.Set(ctx, "b", 2, time.Minute)
	c.Set(ctx, "a", 10, time.Minute)

	var v int
	if !c.Get(ctx, "b", &v) {
		t.Error("overwriting an existing key must not evict others")
	}
	if !c.Get(ctx, "a", &v) || v != 10 {
		t.Errorf("expected overwritten value 10, got %d", v)
	}
}

func TestMemoryCacheInvalidatePattern(t *testing.T) {
	c := NewMemoryCache(10)
	ctx := context.Background()

	c.Set(ctx, "doctors:active", 1, time.Minute)
	c.Set(ctx, "doctors:all", 2, time.Minute)
	c.Set(ctx, "slots:2026-01-05", 3, time.Minute)

	c.Invalidate(ctx, "doctors:*")

	var v int
	if c.Get(ctx, "doctors:active", &v) || c.Get(ctx, "doctors:all", &v) {
		t.Error("doctors keys should be invalidated")
	}
	if !c.Get(ctx, "slots:2026-01-05", &v) {
		t.Error("unrelated keys must survive invalidation")
	}
}

func TestMemoryCacheConcurrentAccess(t *testing.T) {
	c := NewMemoryCache(64)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", n%8)
			for j := 0; j < 100; j++ {
				c.Set(ctx, key, j, time.Minute)
				var out int
				c.Get(ctx, key, &out)
				if j%25 == 0 {
					c.Invalidate(ctx, "k1*")
				}
			}
		}(i)
	}
	wg.Wait()
}
