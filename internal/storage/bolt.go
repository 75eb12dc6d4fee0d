package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
)

// collectionsBucket holds every persisted collection, one key per collection.
var collectionsBucket = []byte("collections")

// BoltBackend persists collections in a single local bolt file.
type BoltBackend struct {
	DB *bolt.DB
}

// NewBoltBackend opens (or creates) the bolt file at path.
func NewBoltBackend(path string) (*BoltBackend, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt file %s: %w", path, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(collectionsBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bolt bucket: %w", err)
	}

	return &BoltBackend{DB: db}, nil
}

func (b *BoltBackend) Load(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	var value []byte
	err := b.DB.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(collectionsBucket)
		if bucket == nil {
			return ErrKeyNotFound
		}
		v := bucket.Get([]byte(key))
		if v == nil {
			return ErrKeyNotFound
		}
		// bolt values are only valid for the life of the transaction
		value = cloneBytes(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (b *BoltBackend) Store(ctx context.Context, key string, value []byte) error {
	_, err := b.Update(ctx, key, overwrite(value))
	return err
}

func (b *BoltBackend) Update(ctx context.Context, key string, fn UpdateFunc) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	written := false
	err := b.DB.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(collectionsBucket)
		if err != nil {
			return err
		}

		current := bucket.Get([]byte(key))
		next, err := fn(cloneBytes(current), current != nil)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}

		if err := bucket.Put([]byte(key), next); err != nil {
			return err
		}
		written = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return written, nil
}

func (b *BoltBackend) Ping(ctx context.Context) error {
	return b.DB.View(func(tx *bolt.Tx) error {
		if tx.Bucket(collectionsBucket) == nil {
			return fmt.Errorf("bolt bucket %s is missing", collectionsBucket)
		}
		return nil
	})
}

// Close the bolt database and release the file lock
func (b *BoltBackend) Close() error {
	return b.DB.Close()
}
