package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// CollectionRecord is the SQL row holding one serialized collection.
type CollectionRecord struct {
	Key       string         `gorm:"column:collection_key;primaryKey;size:255"`
	Value     datatypes.JSON `gorm:"column:value;not null"`
	Revision  int64          `gorm:"column:revision;not null;default:0"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (CollectionRecord) TableName() string {
	return "collections"
}

// GormBackend stores collections in a SQL table; Update uses the revision column as a version check.
type GormBackend struct {
	db         *gorm.DB
	maxRetries int
	logger     *slog.Logger
}

// OpenPostgres connects to PostgreSQL with gorm.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// NewGormBackend migrates the collections table and returns the backend.
func NewGormBackend(db *gorm.DB, log *slog.Logger) (*GormBackend, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if log == nil {
		log = slog.Default()
	}
	if err := db.AutoMigrate(&CollectionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate collections table: %w", err)
	}
	return &GormBackend{db: db, maxRetries: defaultMaxRetries, logger: log}, nil
}

func (g *GormBackend) find(ctx context.Context, key string) (*CollectionRecord, error) {
	var rec CollectionRecord
	err := g.db.WithContext(ctx).Where("collection_key = ?", key).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to load collection %s: %w", key, err)
	}
	return &rec, nil
}

func (g *GormBackend) Load(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	rec, err := g.find(ctx, key)
	if err != nil {
		return nil, err
	}
	return []byte(rec.Value), nil
}

func (g *GormBackend) Store(ctx context.Context, key string, value []byte) error {
	_, err := g.Update(ctx, key, overwrite(value))
	return err
}

func (g *GormBackend) Update(ctx context.Context, key string, fn UpdateFunc) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}

	for attempt := 0; attempt < g.maxRetries; attempt++ {
		rec, err := g.find(ctx, key)
		found := err == nil
		if err != nil && !IsNotFound(err) {
			return false, err
		}

		var current []byte
		if found {
			current = []byte(rec.Value)
		}

		next, err := fn(current, found)
		if err != nil {
			return false, err
		}
		if next == nil {
			return false, nil
		}

		now := time.Now().UTC()
		var res *gorm.DB
		if !found {
			res = g.db.WithContext(ctx).
				Clauses(clause.OnConflict{DoNothing: true}).
				Create(&CollectionRecord{Key: key, Value: datatypes.JSON(next), Revision: 1, UpdatedAt: now})
		} else {
			res = g.db.WithContext(ctx).
				Model(&CollectionRecord{}).
				Where("collection_key = ? AND revision = ?", key, rec.Revision).
				Updates(map[string]interface{}{
					"value":      datatypes.JSON(next),
					"revision":   rec.Revision + 1,
					"updated_at": now,
				})
		}
		if res.Error != nil {
			return false, fmt.Errorf("failed to write collection %s: %w", key, res.Error)
		}
		if res.RowsAffected == 1 {
			return true, nil
		}

		g.logger.DebugContext(ctx, "Collection revision changed concurrently, retrying",
			"key", key,
			"attempt", attempt+1)
	}

	return false, errRetriesExceeded
}

func (g *GormBackend) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

func (g *GormBackend) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}
