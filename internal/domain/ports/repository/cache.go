package repository

import (
	"context"
	"time"
)

// Cache hides the TTL cache used for expensive derived counts. It owns
// its own lifecycle and is constructed once per process and injected;
// there is no package-level cache state.
type Cache interface {
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) ([]byte, error)) ([]byte, error)
	Invalidate(ctx context.Context, key string) error
}
