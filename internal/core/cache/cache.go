package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented read-through cache. GetOrCompute returns the
// cached value when present, otherwise runs compute, stores the result
// under key with the given TTL and returns it. A cache failure must never
// fail the caller: implementations fall back to compute.
type Cache interface {
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) ([]byte, error)) ([]byte, error)
	Invalidate(ctx context.Context, keys ...string) error
}
