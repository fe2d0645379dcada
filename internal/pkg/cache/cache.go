// Package cache is a small Redis-backed JSON cache with whole-namespace
// invalidation.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// JSONCache stores JSON documents under a namespace. Every key embeds the
// namespace generation, so Invalidate only has to bump the counter and old
// entries age out through their TTL.
type JSONCache struct {
	redis     *redis.Client
	namespace string
	ttl       time.Duration
}

// New returns a cache; with a nil client every lookup misses and writes are dropped.
func New(client *redis.Client, namespace string, ttl time.Duration) *JSONCache {
	return &JSONCache{redis: client, namespace: namespace, ttl: ttl}
}

// Slot is a key bound to the namespace generation that was current when
// Get ran. A Set through a slot taken before an Invalidate lands in the
// retired generation and is never read.
type Slot struct {
	key string
}

// Get loads key into dest and reports whether it was present. On a miss the
// returned slot is where the freshly loaded value belongs.
func (c *JSONCache) Get(ctx context.Context, key string, dest interface{}) (Slot, bool, error) {
	if c == nil || c.redis == nil {
		return Slot{}, false, nil
	}

	fullKey, err := c.key(ctx, key)
	if err != nil {
		return Slot{}, false, err
	}
	slot := Slot{key: fullKey}

	data, err := c.redis.Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return slot, false, nil
	}
	if err != nil {
		return slot, false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		// a stale shape is treated as a miss
		c.redis.Del(ctx, fullKey)
		return slot, false, nil
	}
	return slot, true, nil
}

// Set stores value in slot with the namespace TTL. The zero Slot is ignored.
func (c *JSONCache) Set(ctx context.Context, slot Slot, value interface{}) error {
	if c == nil || c.redis == nil || slot.key == "" {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", slot.key, err)
	}

	if err := c.redis.Set(ctx, slot.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", slot.key, err)
	}
	return nil
}

// Invalidate drops every entry of the namespace.
func (c *JSONCache) Invalidate(ctx context.Context) error {
	if c == nil || c.redis == nil {
		return nil
	}
	if err := c.redis.Incr(ctx, c.generationKey()).Err(); err != nil {
		return fmt.Errorf("cache invalidate %s: %w", c.namespace, err)
	}
	return nil
}

func (c *JSONCache) generationKey() string {
	return c.namespace + ":generation"
}

func (c *JSONCache) key(ctx context.Context, key string) (string, error) {
	gen, err := c.redis.Get(ctx, c.generationKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("cache generation %s: %w", c.namespace, err)
	}
	return fmt.Sprintf("%s:%d:%s", c.namespace, gen, key), nil
}
