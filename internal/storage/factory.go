package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Options selects and configures a backend.
type Options struct {
	Driver      string
	BoltPath    string
	RedisURL    string
	DatabaseURL string
	// KeyPrefix is an extra redis namespace. The store adds its own collection
	// prefix, so this stays empty unless several deployments share one database.
	KeyPrefix string
}

// Open builds the backend named by opts.Driver.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (Backend, error) {
	switch strings.ToLower(opts.Driver) {
	case DriverMemory:
		return NewMemoryBackend(), nil

	case DriverBolt, "":
		if opts.BoltPath == "" {
			return nil, fmt.Errorf("bolt driver requires a file path")
		}
		return NewBoltBackend(opts.BoltPath)

	case DriverRedis:
		if opts.RedisURL == "" {
			return nil, fmt.Errorf("redis driver requires REDIS_URL")
		}
		client, err := NewRedisClient(ctx, opts.RedisURL)
		if err != nil {
			return nil, err
		}
		return NewRedisBackend(client, opts.KeyPrefix, logger), nil

	case DriverPostgres:
		if opts.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres driver requires DATABASE_URL")
		}
		db, err := OpenPostgres(opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return NewGormBackend(db, logger)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}
