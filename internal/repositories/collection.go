package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/lms-store/internal/events"
	"github.com/SAP-F-2025/lms-store/internal/storage"
)

// ErrNoChange can be returned by a MutateFunc to skip the write.
var ErrNoChange = errors.New("no change")

// MutateFunc receives a private copy of the collection and returns its new content.
type MutateFunc[T any] func(items []T) ([]T, error)

// Collection is one persisted list of records stored under a single key.
type Collection[T any] struct {
	name      string
	key       string
	backend   storage.Backend
	publisher events.EventPublisher
	seed      func() []T
	legacy    legacyDecoder[T]
	logger    *slog.Logger
}

func newCollection[T any](name, key string, backend storage.Backend, publisher events.EventPublisher,
	seed func() []T, legacy legacyDecoder[T], logger *slog.Logger) *Collection[T] {
	return &Collection[T]{
		name:      name,
		key:       key,
		backend:   backend,
		publisher: publisher,
		seed:      seed,
		legacy:    legacy,
		logger:    logger,
	}
}

// Name returns the collection name ("users", "courses", ...).
func (c *Collection[T]) Name() string { return c.name }

// Key returns the storage key of the collection.
func (c *Collection[T]) Key() string { return c.key }

// Get returns the whole collection in stored order. An absent key yields the seed
// dataset. Unreadable content yields the seed dataset together with a *CorruptionError.
func (c *Collection[T]) Get(ctx context.Context) ([]T, error) {
	data, err := c.backend.Load(ctx, c.key)
	if err != nil {
		if storage.IsNotFound(err) {
			return c.seed(), nil
		}
		return nil, fmt.Errorf("failed to load %s: %w", c.name, err)
	}

	items, err := decodeItems(data, c.legacy)
	if err != nil {
		c.logger.WarnContext(ctx, "Collection is unreadable, falling back to seed data",
			"collection", c.name,
			"key", c.key,
			"error", err)
		return c.seed(), &CorruptionError{Collection: c.name, Key: c.key, Err: err}
	}
	return items, nil
}

// Save replaces the whole collection and then notifies subscribers.
func (c *Collection[T]) Save(ctx context.Context, items []T) error {
	data, err := encodeItems(items)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.name, err)
	}
	if err := c.backend.Store(ctx, c.key, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", c.name, err)
	}

	c.notify(ctx, len(items))
	return nil
}

// Update applies fn atomically to the current collection. Unreadable content is treated
// like an absent key: fn receives the seed dataset and its result replaces the bad value.
// Content written by a newer schema is never overwritten; the *CorruptionError is returned.
func (c *Collection[T]) Update(ctx context.Context, fn MutateFunc[T]) error {
	count := 0
	var recovered error
	written, err := c.backend.Update(ctx, c.key, func(current []byte, found bool) ([]byte, error) {
		items := c.seed()
		recovered = nil
		if found {
			decoded, err := decodeItems(current, c.legacy)
			switch {
			case err == nil:
				items = decoded
			case errors.Is(err, ErrUnsupportedVersion):
				return nil, &CorruptionError{Collection: c.name, Key: c.key, Err: err}
			default:
				recovered = err
			}
		}

		next, err := fn(items)
		if err != nil {
			if errors.Is(err, ErrNoChange) {
				return nil, nil
			}
			return nil, err
		}

		count = len(next)
		return encodeItems(next)
	})
	if err != nil {
		return err
	}

	if written {
		if recovered != nil {
			c.logger.WarnContext(ctx, "Unreadable collection replaced, seed data used as the base",
				"collection", c.name,
				"key", c.key,
				"error", recovered)
		}
		c.notify(ctx, count)
	}
	return nil
}

// Init writes the seed dataset when the key is absent and reports whether it did.
func (c *Collection[T]) Init(ctx context.Context) (bool, error) {
	count := 0
	written, err := c.backend.Update(ctx, c.key, func(_ []byte, found bool) ([]byte, error) {
		if found {
			return nil, nil
		}
		seed := c.seed()
		count = len(seed)
		return encodeItems(seed)
	})
	if err != nil {
		return false, fmt.Errorf("failed to initialize %s: %w", c.name, err)
	}

	if written {
		c.logger.InfoContext(ctx, "Collection seeded", "collection", c.name, "items", count)
		c.notify(ctx, count)
	}
	return written, nil
}

// notify runs after a successful write; failures are logged because the write already happened.
func (c *Collection[T]) notify(ctx context.Context, count int) {
	if c.publisher == nil {
		return
	}
	event, err := events.NewCollectionChangedEvent(c.name, c.key, count)
	if err == nil {
		err = c.publisher.Publish(ctx, event)
	}
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to publish change notification",
			"collection", c.name,
			"error", err)
	}
}
