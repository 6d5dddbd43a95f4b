package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache implements usecase.Cache using Redis as a read-through cache.
// Store failures degrade to calling the loader directly: a dead Redis
// slows reads down, it never fails them.
type Cache struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
}

// NewCache creates a new Cache.
func NewCache(client *redis.Client, logger zerolog.Logger) *Cache {
	return &Cache{
		client: client,
		prefix: "cache:",
		logger: logger,
	}
}

// GetOrFetch returns the cached value for key, or runs loader and caches
// its result for ttl.
func (c *Cache) GetOrFetch(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	fullKey := c.prefix + key

	data, err := c.client.Get(ctx, fullKey).Bytes()
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed, falling through to loader")
	}

	data, err = loader(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.client.Set(ctx, fullKey, data, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}

	return data, nil
}

// Delete removes keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	fullKeys := make([]string, 0, len(keys))
	for _, k := range keys {
		fullKeys = append(fullKeys, c.prefix+k)
	}

	return c.client.Del(ctx, fullKeys...).Err()
}

// DeleteByPrefix removes every key under the given prefix using SCAN, so
// parameterized list keys can be invalidated without enumerating them.
func (c *Cache) DeleteByPrefix(ctx context.Context, prefix string) error {
	pattern := c.prefix + prefix + "*"

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
