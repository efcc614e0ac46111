// Package stats tracks the global roast counter shown on the landing page.
package stats

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Counter is a monotonically increasing global tally. Increments are
// best-effort from the caller's point of view; a failed increment never fails
// a call.
type Counter interface {
	Increment(ctx context.Context) (int64, error)
	Current(ctx context.Context) (int64, error)
}

const counterKey = "roast:stats:total"

// RedisCounter keeps the tally in Redis so every instance serves the same
// number. The seed is written once with SETNX so restarts never reset the
// count.
type RedisCounter struct {
	rdb  *redis.Client
	seed int64
}

func NewRedisCounter(rdb *redis.Client, seed int64) *RedisCounter {
	return &RedisCounter{rdb: rdb, seed: seed}
}

func (c *RedisCounter) Increment(ctx context.Context) (int64, error) {
	if err := c.ensureSeed(ctx); err != nil {
		return 0, err
	}
	return c.rdb.Incr(ctx, counterKey).Result()
}

func (c *RedisCounter) Current(ctx context.Context) (int64, error) {
	if err := c.ensureSeed(ctx); err != nil {
		return 0, err
	}
	return c.rdb.Get(ctx, counterKey).Int64()
}

func (c *RedisCounter) ensureSeed(ctx context.Context) error {
	return c.rdb.SetNX(ctx, counterKey, c.seed, 0).Err()
}

// MemoryCounter is the single-instance fallback used in tests and local runs
// without Redis.
type MemoryCounter struct {
	mu    sync.Mutex
	total int64
}

func NewMemoryCounter(seed int64) *MemoryCounter {
	return &MemoryCounter{total: seed}
}

func (c *MemoryCounter) Increment(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total++
	return c.total, nil
}

func (c *MemoryCounter) Current(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total, nil
}
