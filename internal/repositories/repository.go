package repositories

import (
	"context"

	"github.com/SAP-F-2025/lms-store/internal/models"
)

// CollectionRepository is the persisted form of one entity list.
type CollectionRepository[T any] interface {
	Name() string
	Key() string
	Get(ctx context.Context) ([]T, error)
	Save(ctx context.Context, items []T) error
	Update(ctx context.Context, fn MutateFunc[T]) error
	Init(ctx context.Context) (bool, error)
}

type (
	UserRepository       = CollectionRepository[models.User]
	CourseRepository     = CollectionRepository[models.Course]
	EnrollmentRepository = CollectionRepository[models.Enrollment]
	MessageRepository    = CollectionRepository[models.ChatMessage]
)

// Repository groups the four collections of the dataset
type Repository interface {
	Users() UserRepository
	Courses() CourseRepository
	Enrollments() EnrollmentRepository
	Messages() MessageRepository

	// Init seeds every absent collection; safe to call repeatedly.
	Init(ctx context.Context) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}
