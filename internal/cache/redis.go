package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter keeps expiring integer counters. Increment starts the TTL on
// the first hit only, so a window is fixed from its first event.
type Counter interface {
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Count(ctx context.Context, key string) (int64, error)
	Delete(ctx context.Context, keys ...string) error
}

type Cache struct {
	client *redis.Client
	prefix string
}

func NewCache(client *redis.Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

func (c *Cache) key(k string) string { return c.prefix + k }

func (c *Cache) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, c.key(key))
		p.ExpireNX(ctx, c.key(key), ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("cache incr %s: %w", key, err)
	}
	return incr.Val(), nil
}

func (c *Cache) Count(ctx context.Context, key string) (int64, error) {
	n, err := c.client.Get(ctx, c.key(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache get %s: %w", key, err)
	}
	return n, nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return c.client.Del(ctx, full...).Err()
}

// Ping reports whether the server is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
