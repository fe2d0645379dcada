package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type entry struct {
	Title string `json:"title"`
	Price string `json:"price"`
}

func newRedisCache(t *testing.T, ttl time.Duration) (*JSONCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, "catalog", ttl), mr
}

func TestNilClientIsNoop(t *testing.T) {
	ctx := context.Background()
	c := New(nil, "catalog", time.Minute)

	var out []string
	slot, hit, err := c.Get(ctx, "packages:list", &out)
	if err != nil || hit {
		t.Fatalf("expected miss without redis, got hit=%v err=%v", hit, err)
	}
	if err := c.Set(ctx, slot, []string{"a"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	var nilCache *JSONCache
	if _, hit, _ := nilCache.Get(ctx, "k", &out); hit {
		t.Fatalf("nil cache must miss")
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t, time.Minute)

	var got entry
	slot, hit, err := c.Get(ctx, "packages:1", &got)
	if err != nil || hit {
		t.Fatalf("expected cold miss, got hit=%v err=%v", hit, err)
	}
	if err := c.Set(ctx, slot, entry{Title: "Wedding", Price: "100"}); err != nil {
		t.Fatalf("set: %v", err)
	}

	if _, hit, err = c.Get(ctx, "packages:1", &got); err != nil || !hit {
		t.Fatalf("expected hit, got hit=%v err=%v", hit, err)
	}
	if got.Title != "Wedding" || got.Price != "100" {
		t.Fatalf("unexpected cached value %+v", got)
	}

	mr.FastForward(2 * time.Minute)
	if _, hit, _ = c.Get(ctx, "packages:1", &got); hit {
		t.Fatalf("expected entry to expire with the ttl")
	}
}

func TestInvalidateDropsNamespace(t *testing.T) {
	ctx := context.Background()
	c, _ := newRedisCache(t, time.Minute)

	var got entry
	for _, key := range []string{"packages:1", "packages:list:all"} {
		slot, _, _ := c.Get(ctx, key, &got)
		if err := c.Set(ctx, slot, entry{Title: key}); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
	}

	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	for _, key := range []string{"packages:1", "packages:list:all"} {
		if _, hit, _ := c.Get(ctx, key, &got); hit {
			t.Fatalf("%s survived invalidation", key)
		}
	}
}

func TestSetAfterInvalidateDoesNotRevive(t *testing.T) {
	ctx := context.Background()
	c, _ := newRedisCache(t, time.Hour)

	// reader misses and loads the old row
	var got entry
	slot, hit, err := c.Get(ctx, "packages:1", &got)
	if err != nil || hit {
		t.Fatalf("expected miss, got hit=%v err=%v", hit, err)
	}

	// writer updates and invalidates before the reader stores its value
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if err := c.Set(ctx, slot, entry{Title: "Wedding", Price: "100"}); err != nil {
		t.Fatalf("set: %v", err)
	}

	if _, hit, _ := c.Get(ctx, "packages:1", &got); hit {
		t.Fatalf("stale value served after invalidate: %+v", got)
	}
}

func TestUndecodableEntryIsAMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t, time.Minute)

	if err := mr.Set("catalog:0:packages:1", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var got entry
	if _, hit, err := c.Get(ctx, "packages:1", &got); err != nil || hit {
		t.Fatalf("expected miss on bad payload, got hit=%v err=%v", hit, err)
	}
	if mr.Exists("catalog:0:packages:1") {
		t.Fatalf("expected bad payload to be deleted")
	}
}
