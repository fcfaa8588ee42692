package cache

import (
	"context"
	"testing"
	"time"

	"github.com/openclaims/kestrel/internal/domain"
)

func TestLRUCacheSetGet(t *testing.T) {
	c := NewLRUCache(10)
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "org-1", "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	val, err := c.Get(ctx, "org-1", "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(val) != "v" {
		t.Errorf("val = %q", val)
	}

	// Missing key is nil, nil.
	val, err = c.Get(ctx, "org-1", "missing")
	if err != nil || val != nil {
		t.Errorf("missing key: val=%v err=%v", val, err)
	}
}

func TestLRUCacheTTLExpiry(t *testing.T) {
	c := NewLRUCache(10)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "org-1", "k", []byte("v"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	val, err := c.Get(ctx, "org-1", "k")
	if err != nil || val != nil {
		t.Errorf("expired key: val=%v err=%v", val, err)
	}
}

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache(2)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "org-1", "a", []byte("1"), time.Minute)
	c.Set(ctx, "org-1", "b", []byte("2"), time.Minute)
	c.Get(ctx, "org-1", "a") // touch a so b is the LRU entry
	c.Set(ctx, "org-1", "c", []byte("3"), time.Minute)

	if val, _ := c.Get(ctx, "org-1", "b"); val != nil {
		t.Error("b should have been evicted")
	}
	if val, _ := c.Get(ctx, "org-1", "a"); string(val) != "1" {
		t.Error("a should have survived")
	}

	size, capacity := c.Stats()
	if size != 2 || capacity != 2 {
		t.Errorf("size=%d capacity=%d", size, capacity)
	}
}

func TestLRUCacheOrgIsolation(t *testing.T) {
	c := NewLRUCache(10)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "org-1", "k", []byte("one"), time.Minute)
	c.Set(ctx, "org-2", "k", []byte("two"), time.Minute)

	if val, _ := c.Get(ctx, "org-1", "k"); string(val) != "one" {
		t.Errorf("org-1 val = %q", val)
	}
	if val, _ := c.Get(ctx, "org-2", "k"); string(val) != "two" {
		t.Errorf("org-2 val = %q", val)
	}

	c.Delete(ctx, "org-1", "k")
	if val, _ := c.Get(ctx, "org-2", "k"); string(val) != "two" {
		t.Error("delete leaked across orgs")
	}
}

func TestLRUCacheStatsSnapshot(t *testing.T) {
	c := NewLRUCache(10)
	defer c.Close()
	ctx := context.Background()

	stats := &domain.Stats{
		TotalClaims: 7,
		ByBand:      map[string]int{"high": 2},
		ByStatus:    map[string]int{"needs_review": 5, "approved": 2},
	}
	if err := c.SetStats(ctx, "org-1", stats, time.Minute); err != nil {
		t.Fatalf("SetStats: %v", err)
	}

	got, err := c.GetStats(ctx, "org-1")
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if got.TotalClaims != 7 || got.ByBand["high"] != 2 {
		t.Errorf("got = %+v", got)
	}

	if got, _ := c.GetStats(ctx, "org-2"); got != nil {
		t.Error("snapshot leaked across orgs")
	}
}

func TestLRUCacheRequiresOrg(t *testing.T) {
	c := NewLRUCache(10)
	defer c.Close()
	ctx := context.Background()

	if _, err := c.Get(ctx, "", "k"); err == nil {
		t.Error("Get without org must fail")
	}
	if err := c.Set(ctx, "", "k", nil, time.Minute); err == nil {
		t.Error("Set without org must fail")
	}
}

func TestNewSelectsCacheType(t *testing.T) {
	c, err := New(domain.CacheConfig{Type: "memory", LocalMaxSize: 10})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	if _, ok := c.(*LRUCache); !ok {
		t.Error("expected LRUCache")
	}

	if _, err := New(domain.CacheConfig{Type: "memcached"}); err == nil {
		t.Error("expected error for unknown cache type")
	}
}
