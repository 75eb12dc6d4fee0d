package storage

import (
	"context"
	"errors"
	"fmt"
)

// Storage errors
var (
	ErrKeyNotFound     = errors.New("storage key not found")
	ErrConflict        = errors.New("storage write conflict")
	ErrUnknownDriver   = errors.New("unknown storage driver")
	ErrBackendClosed   = errors.New("storage backend closed")
	ErrEmptyKey        = errors.New("storage key is required")
	defaultMaxRetries  = 10
	errRetriesExceeded = fmt.Errorf("%w: retries exceeded", ErrConflict)
)

// UpdateFunc receives the current value of a key and returns the value to write.
// Returning a nil slice leaves the key untouched.
type UpdateFunc func(current []byte, found bool) ([]byte, error)

// Backend is a durable key/value store holding one serialized collection per key.
type Backend interface {
	// Load returns the stored bytes or ErrKeyNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Store overwrites the whole value of key.
	Store(ctx context.Context, key string, value []byte) error

	// Update performs an atomic read-modify-write of key and reports whether a write happened.
	Update(ctx context.Context, key string, fn UpdateFunc) (bool, error)

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying resources.
	Close() error
}

// Driver names accepted by the configuration
const (
	DriverMemory   = "memory"
	DriverBolt     = "bolt"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// IsNotFound reports whether err means the key is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

func checkKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return nil
}

// overwrite is the UpdateFunc used to implement Store on top of Update.
func overwrite(value []byte) UpdateFunc {
	return func([]byte, bool) ([]byte, error) {
		if value == nil {
			return []byte{}, nil
		}
		return value, nil
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
