package cache

import (
	"context"
	"errors"
	"log/slog"
)

// SafeGet reads key into dest and reports a hit. Misses are silent, other failures are logged.
func SafeGet(ctx context.Context, logger *slog.Logger, helper *CacheHelper, key string, dest interface{}) bool {
	err := helper.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, ErrCacheNotFound) && !errors.Is(err, ErrCacheNotAvailable) {
		logger.WarnContext(ctx, "Cache read failed",
			"error", err,
			"key", key)
	}
	return false
}

// SafeSet caches value with logging
func SafeSet(ctx context.Context, logger *slog.Logger, helper *CacheHelper, value interface{}, keys ...string) {
	if err := helper.Set(ctx, value, keys...); err != nil {
		logger.WarnContext(ctx, "Cache write failed",
			"error", err,
			"keys", keys)
	}
}
