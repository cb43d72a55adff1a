package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/appworkspm/painai/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RedisCache backs the Cache interface with a shared Redis instance.
type RedisCache struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisCache(client *redis.Client) *RedisCache {
	lg := logger.L()
	if lg == nil {
		lg = slog.Default()
	}
	return &RedisCache{client: client, logger: lg}
}

func (c *RedisCache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.Warn("cache read failed, falling back to source", "key", key, "error", err)
	}

	data, err = compute(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return data, nil
}

func (c *RedisCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache invalidation failed", "keys", keys, "error", err)
		return err
	}
	return nil
}
