package repositories

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/lms-store/internal/events"
	"github.com/SAP-F-2025/lms-store/internal/models"
	"github.com/SAP-F-2025/lms-store/internal/storage"
)

// DefaultKeyPrefix namespaces the collection keys.
const DefaultKeyPrefix = "akwaba_db_"

// StoreConfig holds configuration for store initialization
type StoreConfig struct {
	Backend   storage.Backend
	Publisher events.EventPublisher
	KeyPrefix string
	Logger    *slog.Logger
}

// Store implements Repository over a single storage backend.
type Store struct {
	backend storage.Backend
	logger  *slog.Logger

	users       *Collection[models.User]
	courses     *Collection[models.Course]
	enrollments *Collection[models.Enrollment]
	messages    *Collection[models.ChatMessage]
}

// NewStore wires the four collections onto config.Backend.
func NewStore(config StoreConfig) (*Store, error) {
	if config.Backend == nil {
		return nil, fmt.Errorf("storage backend is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	prefix := config.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	return &Store{
		backend: config.Backend,
		logger:  logger,
		users: newCollection[models.User](events.CollectionUsers, prefix+events.CollectionUsers,
			config.Backend, config.Publisher, models.SeedUsers, decodeLegacyUsers, logger),
		courses: newCollection[models.Course](events.CollectionCourses, prefix+events.CollectionCourses,
			config.Backend, config.Publisher, models.SeedCourses, nil, logger),
		enrollments: newCollection[models.Enrollment](events.CollectionEnrollments, prefix+events.CollectionEnrollments,
			config.Backend, config.Publisher, models.SeedEnrollments, nil, logger),
		messages: newCollection[models.ChatMessage](events.CollectionMessages, prefix+events.CollectionMessages,
			config.Backend, config.Publisher, models.SeedMessages, nil, logger),
	}, nil
}

func (s *Store) Users() UserRepository {
	return s.users
}

func (s *Store) Courses() CourseRepository {
	return s.courses
}

func (s *Store) Enrollments() EnrollmentRepository {
	return s.enrollments
}

func (s *Store) Messages() MessageRepository {
	return s.messages
}

func (s *Store) Init(ctx context.Context) error {
	initializers := []interface {
		Name() string
		Init(ctx context.Context) (bool, error)
	}{s.users, s.courses, s.enrollments, s.messages}

	for _, c := range initializers {
		if _, err := c.Init(ctx); err != nil {
			return err
		}
	}
	s.logger.DebugContext(ctx, "Store initialized")
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

func (s *Store) Close() error {
	return s.backend.Close()
}
