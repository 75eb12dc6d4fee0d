package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SAP-F-2025/lms-store/internal/repositories"
	"github.com/SAP-F-2025/lms-store/internal/validator"
)

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator

	// Service instances
	userService       UserService
	courseService     CourseService
	enrollmentService EnrollmentService
	quizService       QuizService
	chatService       ChatService
	integrityService  IntegrityService
	reportService     ReportService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) ServiceManager {
	return &serviceManager{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// Initialize seeds absent collections and sets up all services
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	sm.logger.Info("Initializing service manager")

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	if err := sm.repo.Init(ctx); err != nil {
		return fmt.Errorf("failed to seed store: %w", err)
	}

	sm.initializeServices()

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) initializeServices() {
	sm.userService = NewUserService(sm.repo, sm.logger, sm.validator)
	sm.courseService = NewCourseService(sm.repo, sm.logger, sm.validator)
	sm.enrollmentService = NewEnrollmentService(sm.repo, sm.logger)
	sm.quizService = NewQuizService(sm.repo, sm.enrollmentService, sm.logger)
	sm.chatService = NewChatService(sm.repo, sm.logger)
	sm.integrityService = NewIntegrityService(sm.repo, sm.logger)
	sm.reportService = NewReportService(sm.repo, sm.logger)
	sm.logger.Debug("Services initialized")
}

// Service getters
func (sm *serviceManager) User() UserService {
	sm.mustBeInitialized()
	return sm.userService
}

func (sm *serviceManager) Course() CourseService {
	sm.mustBeInitialized()
	return sm.courseService
}

func (sm *serviceManager) Enrollment() EnrollmentService {
	sm.mustBeInitialized()
	return sm.enrollmentService
}

func (sm *serviceManager) Quiz() QuizService {
	sm.mustBeInitialized()
	return sm.quizService
}

func (sm *serviceManager) Chat() ChatService {
	sm.mustBeInitialized()
	return sm.chatService
}

func (sm *serviceManager) Integrity() IntegrityService {
	sm.mustBeInitialized()
	return sm.integrityService
}

func (sm *serviceManager) Report() ReportService {
	sm.mustBeInitialized()
	return sm.reportService
}

func (sm *serviceManager) mustBeInitialized() {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.InfoContext(ctx, "Shutting down service manager")

	if err := sm.repo.Close(); err != nil {
		sm.logger.ErrorContext(ctx, "Failed to close repository", "error", err)
	}

	sm.shutdown = true
	sm.logger.InfoContext(ctx, "Service manager shut down completed")

	return nil
}
