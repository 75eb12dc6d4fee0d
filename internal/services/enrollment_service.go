package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/lms-store/internal/models"
	"github.com/SAP-F-2025/lms-store/internal/repositories"
)

type enrollmentService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewEnrollmentService(repo repositories.Repository, logger *slog.Logger) EnrollmentService {
	return &enrollmentService{
		repo:   repo,
		logger: logger,
	}
}

// Reassign makes courseID the only enrollment of userID, starting from zero progress.
// Reassigning to the current course also resets progress.
func (s *enrollmentService) Reassign(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	userID = strings.TrimSpace(userID)
	courseID = strings.TrimSpace(courseID)
	if userID == "" {
		return nil, NewValidationError("userId", "is required", userID)
	}
	if courseID == "" {
		return nil, NewValidationError("courseId", "is required", courseID)
	}

	enrollment := models.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		EnrolledAt: now(),
		Progress:   models.MinProgress,
	}

	err := s.repo.Enrollments().Update(ctx, func(enrollments []models.Enrollment) ([]models.Enrollment, error) {
		kept := make([]models.Enrollment, 0, len(enrollments)+1)
		for _, e := range enrollments {
			if e.UserID != userID {
				kept = append(kept, e)
			}
		}
		return append(kept, enrollment), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reassign enrollment: %w", err)
	}

	s.logger.InfoContext(ctx, "Enrollment reassigned", "user_id", userID, "course_id", courseID)
	return &enrollment, nil
}

// SetProgress stores progress clamped to [0,100] on every row of the user.
func (s *enrollmentService) SetProgress(ctx context.Context, userID string, progress int) (*models.Enrollment, error) {
	clamped := models.ClampProgress(progress)

	var updated models.Enrollment
	err := s.mutateEnrollment(ctx, userID, func(e *models.Enrollment) error {
		e.Progress = clamped
		updated = *e
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "Progress updated", "user_id", userID, "progress", clamped)
	return &updated, nil
}

func (s *enrollmentService) Current(ctx context.Context, userID string) (*models.Enrollment, error) {
	enrollments, err := readCollection(ctx, s.repo.Enrollments(), s.logger)
	if err != nil {
		return nil, err
	}
	enrollment, ok := models.FindEnrollment(enrollments, userID)
	if !ok {
		return nil, fmt.Errorf("%w: user %s", ErrEnrollmentNotFound, userID)
	}
	return &enrollment, nil
}

func (s *enrollmentService) ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	enrollments, err := readCollection(ctx, s.repo.Enrollments(), s.logger)
	if err != nil {
		return nil, err
	}

	out := make([]models.Enrollment, 0)
	for _, e := range enrollments {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *enrollmentService) Remove(ctx context.Context, userID string) error {
	err := s.repo.Enrollments().Update(ctx, func(enrollments []models.Enrollment) ([]models.Enrollment, error) {
		kept := make([]models.Enrollment, 0, len(enrollments))
		for _, e := range enrollments {
			if e.UserID != userID {
				kept = append(kept, e)
			}
		}
		if len(kept) == len(enrollments) {
			return nil, fmt.Errorf("%w: user %s", ErrEnrollmentNotFound, userID)
		}
		return kept, nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Enrollment removed", "user_id", userID)
	return nil
}

// ===== MODULE PROGRESS =====

// CompleteModule marks a module of the enrolled course as done and recomputes progress.
func (s *enrollmentService) CompleteModule(ctx context.Context, userID, moduleID string) (*models.Enrollment, error) {
	current, err := s.Current(ctx, userID)
	if err != nil {
		return nil, err
	}
	course, err := s.courseWithModule(ctx, current.CourseID, moduleID)
	if err != nil {
		return nil, err
	}

	var updated models.Enrollment
	err = s.mutateEnrollment(ctx, userID, func(e *models.Enrollment) error {
		if e.CourseID != course.ID {
			return NewBusinessRuleError("ENROLLMENT-CHANGED", "the user was reassigned to another course",
				map[string]interface{}{"user_id": userID, "course_id": e.CourseID})
		}
		mp := moduleProgress(e, moduleID)
		if !mp.Completed {
			completedAt := now()
			mp.Completed = true
			mp.CompletedAt = &completedAt
		}
		e.Modules[moduleID] = mp
		e.Progress = courseProgress(*e, *course)
		updated = *e
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Module completed",
		"user_id", userID,
		"course_id", course.ID,
		"module_id", moduleID,
		"progress", updated.Progress)
	return &updated, nil
}

// RecordQuizResult stores an attempt on the enrollment when it points at courseID.
// A passing attempt completes the module.
func (s *enrollmentService) RecordQuizResult(ctx context.Context, userID, courseID, moduleID string, result QuizResult) (*models.Enrollment, error) {
	course, err := s.courseWithModule(ctx, courseID, moduleID)
	if err != nil {
		return nil, err
	}

	var updated models.Enrollment
	err = s.mutateEnrollment(ctx, userID, func(e *models.Enrollment) error {
		if e.CourseID != courseID {
			return NewBusinessRuleError("ENROLLMENT-COURSE-MISMATCH", "the user is not enrolled in this course",
				map[string]interface{}{"user_id": userID, "course_id": courseID})
		}
		mp := moduleProgress(e, moduleID)
		mp.Attempts++
		if result.Score > mp.BestScore {
			mp.BestScore = result.Score
		}
		if result.Passed && !mp.Completed {
			completedAt := now()
			mp.Completed = true
			mp.CompletedAt = &completedAt
		}
		e.Modules[moduleID] = mp
		e.Progress = courseProgress(*e, *course)
		updated = *e
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Quiz result recorded",
		"user_id", userID,
		"module_id", moduleID,
		"score", result.Score,
		"passed", result.Passed)
	return &updated, nil
}

// ===== HELPERS =====

// mutateEnrollment applies fn to every row of userID; the last mutated row is what callers report.
func (s *enrollmentService) mutateEnrollment(ctx context.Context, userID string, fn func(*models.Enrollment) error) error {
	return s.repo.Enrollments().Update(ctx, func(enrollments []models.Enrollment) ([]models.Enrollment, error) {
		found := false
		for i := range enrollments {
			if enrollments[i].UserID != userID {
				continue
			}
			found = true
			if err := fn(&enrollments[i]); err != nil {
				return nil, err
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: user %s", ErrEnrollmentNotFound, userID)
		}
		return enrollments, nil
	})
}

func (s *enrollmentService) courseWithModule(ctx context.Context, courseID, moduleID string) (*models.Course, error) {
	courses, err := readCollection(ctx, s.repo.Courses(), s.logger)
	if err != nil {
		return nil, err
	}
	course, ok := models.FindCourse(courses, courseID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCourseNotFound, courseID)
	}
	if _, ok := course.FindModule(moduleID); !ok {
		return nil, fmt.Errorf("%w: %s in course %s", ErrModuleNotFound, moduleID, courseID)
	}
	return &course, nil
}

func moduleProgress(e *models.Enrollment, moduleID string) models.ModuleProgress {
	if e.Modules == nil {
		e.Modules = make(map[string]models.ModuleProgress)
	}
	return e.Modules[moduleID]
}
