// File: internal/infra/redis/cache.go
package redis

import (
	"context"
	"time"

	"batch-transcriber/internal/domain/ports/repository"
	"batch-transcriber/internal/infra/metrics"
)

var _ repository.Cache = (*ComputeCache)(nil)

// ComputeCache is a get-or-compute TTL cache for derived aggregates.
// Construct once per process and inject; it carries no global state.
type ComputeCache struct {
	client RedisClient
	name   string
}

func NewComputeCache(client RedisClient, name string) *ComputeCache {
	return &ComputeCache{client: client, name: name}
}

func (c *ComputeCache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	val, err := c.client.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest(c.name, "hit")
		return []byte(val), nil
	}
	// redis.Nil is a plain miss; a real Redis error also falls through
	// to compute, the cache is an optimization only.
	metrics.IncCacheRequest(c.name, "miss")
	b, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	if ttl > 0 {
		_ = c.client.Set(ctx, key, b, ttl)
	}
	return b, nil
}

func (c *ComputeCache) Invalidate(ctx context.Context, key string) error {
	return c.client.Del(ctx, key)
}
