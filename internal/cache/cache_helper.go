package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheHelper provides prefixed JSON caching over redis. A nil client disables caching.
type CacheHelper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// CacheConfig defines cache configuration for one kind of cached data
type CacheConfig struct {
	TTL    time.Duration
	Prefix string
}

// DirectoryCacheConfig caches remote directory accounts; they change rarely.
var DirectoryCacheConfig = CacheConfig{
	TTL:    15 * time.Minute,
	Prefix: "directory:user:",
}

var (
	ErrCacheNotAvailable = errors.New("cache not available")
	ErrCacheNotFound     = errors.New("cache not found")
)

// NewCacheHelper creates a new cache helper instance
func NewCacheHelper(client *redis.Client, config CacheConfig) *CacheHelper {
	return &CacheHelper{
		client: client,
		prefix: config.Prefix,
		ttl:    config.TTL,
	}
}

// Available reports whether a redis client is configured.
func (c *CacheHelper) Available() bool {
	return c != nil && c.client != nil
}

// GetCacheKey generates a cache key with prefix
func (c *CacheHelper) GetCacheKey(key string) string {
	return fmt.Sprintf("%s%s", c.prefix, key)
}

// Get retrieves and unmarshals data from cache
func (c *CacheHelper) Get(ctx context.Context, key string, dest interface{}) error {
	if !c.Available() {
		return ErrCacheNotAvailable
	}

	data, err := c.client.Get(ctx, c.GetCacheKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheNotFound
		}
		return fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache unmarshal error: %w", err)
	}
	return nil
}

// Set marshals value once and stores it under every key with the configured TTL
func (c *CacheHelper) Set(ctx context.Context, value interface{}, keys ...string) error {
	if !c.Available() || len(keys) == 0 {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if len(keys) == 1 {
		return c.client.Set(ctx, c.GetCacheKey(keys[0]), data, c.ttl).Err()
	}

	pipe := c.client.Pipeline()
	for _, key := range keys {
		pipe.Set(ctx, c.GetCacheKey(key), data, c.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Delete removes data from cache
func (c *CacheHelper) Delete(ctx context.Context, keys ...string) error {
	if !c.Available() || len(keys) == 0 {
		return nil
	}

	cacheKeys := make([]string, len(keys))
	for i, key := range keys {
		cacheKeys[i] = c.GetCacheKey(key)
	}
	return c.client.Del(ctx, cacheKeys...).Err()
}
