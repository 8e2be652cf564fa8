package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by a PageCache when the key is not present
var ErrCacheMiss = errors.New("cache miss")

// PageCache stores decoded list pages between runs
type PageCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

const pageCachePrefix = "cinedex:page:"

// pageCacheKey derives the key from the request URL built by buildURL, which
// carries the base URL, language and sorted query but never the API key.
func pageCacheKey(target string) string {
	return pageCachePrefix + target
}

// RedisPageCache is a PageCache backed by Redis
type RedisPageCache struct {
	client *redis.Client
}

// NewRedisPageCache connects to the Redis instance at redisURL
func NewRedisPageCache(ctx context.Context, redisURL string) (*RedisPageCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisPageCache{client: client}, nil
}

// Get decodes the cached value for key into dest
func (c *RedisPageCache) Get(ctx context.Context, key string, dest any) error {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("redis get error: %w", err)
	}

	if err := json.Unmarshal(val, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cached value: %w", err)
	}

	return nil
}

// Set stores value under key for ttl
func (c *RedisPageCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}

	return nil
}

// Close closes the Redis connection
func (c *RedisPageCache) Close() error {
	return c.client.Close()
}
