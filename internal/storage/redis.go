package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores each collection under a prefixed redis string key.
type RedisBackend struct {
	client     *redis.Client
	prefix     string
	maxRetries int
	logger     *slog.Logger
}

// NewRedisClient parses a redis URL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// NewRedisBackend wraps an existing client. prefix namespaces every key.
func NewRedisBackend(client *redis.Client, prefix string, logger *slog.Logger) *RedisBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBackend{
		client:     client,
		prefix:     prefix,
		maxRetries: defaultMaxRetries,
		logger:     logger,
	}
}

// GetCacheKey generates a redis key with prefix
func (r *RedisBackend) GetCacheKey(key string) string {
	return fmt.Sprintf("%s%s", r.prefix, key)
}

func (r *RedisBackend) Load(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	data, err := r.client.Get(ctx, r.GetCacheKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("redis get error: %w", err)
	}
	return data, nil
}

func (r *RedisBackend) Store(ctx context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	return r.client.Set(ctx, r.GetCacheKey(key), value, 0).Err()
}

// Update uses WATCH/MULTI so that a concurrent writer forces a retry instead of a lost update.
func (r *RedisBackend) Update(ctx context.Context, key string, fn UpdateFunc) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	redisKey := r.GetCacheKey(key)

	var written bool
	txf := func(tx *redis.Tx) error {
		written = false

		found := true
		current, err := tx.Get(ctx, redisKey).Bytes()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				return err
			}
			found = false
			current = nil
		}

		next, err := fn(current, found)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, redisKey, next, 0)
			return nil
		})
		if err == nil {
			written = true
		}
		return err
	}

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		err := r.client.Watch(ctx, txf, redisKey)
		if err == nil {
			return written, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			r.logger.DebugContext(ctx, "Redis optimistic lock failed, retrying",
				"key", redisKey,
				"attempt", attempt+1)
			continue
		}
		return false, err
	}

	return false, errRetriesExceeded
}

func (r *RedisBackend) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}
