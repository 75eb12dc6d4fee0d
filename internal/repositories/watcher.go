package repositories

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/lms-store/internal/events"
	"github.com/SAP-F-2025/lms-store/internal/storage"
)

// DefaultWatchInterval is how often a Watcher polls the backend.
const DefaultWatchInterval = 2 * time.Second

// Watcher detects writes made by other processes sharing the backend and
// republishes them as local change notifications.
type Watcher struct {
	store     *Store
	publisher events.EventPublisher
	interval  time.Duration
	logger    *slog.Logger

	digests map[string]string
	primed  bool
}

func NewWatcher(store *Store, publisher events.EventPublisher, interval time.Duration, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		store:     store,
		publisher: publisher,
		interval:  interval,
		logger:    logger,
		digests:   make(map[string]string),
	}
}

type watchTarget struct {
	name  string
	key   string
	count func(ctx context.Context) (int, error)
}

func targetOf[T any](c *Collection[T]) watchTarget {
	return watchTarget{
		name: c.name,
		key:  c.key,
		count: func(ctx context.Context) (int, error) {
			items, err := c.Get(ctx)
			if err != nil && !IsCorruptionError(err) {
				return 0, err
			}
			return len(items), nil
		},
	}
}

// Poll compares every collection with the previous round and publishes one event per
// changed collection. The first call only records the baseline.
func (w *Watcher) Poll(ctx context.Context) (int, error) {
	targets := []watchTarget{
		targetOf(w.store.users),
		targetOf(w.store.courses),
		targetOf(w.store.enrollments),
		targetOf(w.store.messages),
	}

	changed := 0
	for _, target := range targets {
		digest, err := w.digest(ctx, target.key)
		if err != nil {
			return changed, err
		}
		previous, seen := w.digests[target.key]
		w.digests[target.key] = digest
		if !w.primed || (seen && previous == digest) {
			continue
		}

		changed++
		count, err := target.count(ctx)
		if err != nil {
			w.logger.WarnContext(ctx, "Failed to count changed collection",
				"collection", target.name,
				"error", err)
		}
		event, err := events.NewCollectionChangedEvent(target.name, target.key, count)
		if err != nil {
			return changed, err
		}
		if err := w.publisher.Publish(ctx, event); err != nil {
			w.logger.ErrorContext(ctx, "Failed to publish external change",
				"collection", target.name,
				"error", err)
		}
	}
	w.primed = true
	return changed, nil
}

// Run polls until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if _, err := w.Poll(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.Poll(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.logger.WarnContext(ctx, "Store poll failed", "error", err)
			}
		}
	}
}

// digest is empty for an absent key.
func (w *Watcher) digest(ctx context.Context, key string) (string, error) {
	data, err := w.store.backend.Load(ctx, key)
	if err != nil {
		if storage.IsNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to poll %s: %w", key, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
