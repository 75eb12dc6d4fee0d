package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/lms-store/internal/models"
	"github.com/SAP-F-2025/lms-store/internal/repositories"
)

type quizService struct {
	repo        repositories.Repository
	enrollments EnrollmentService
	logger      *slog.Logger
}

func NewQuizService(repo repositories.Repository, enrollments EnrollmentService, logger *slog.Logger) QuizService {
	return &quizService{
		repo:        repo,
		enrollments: enrollments,
		logger:      logger,
	}
}

func (s *quizService) Evaluate(ctx context.Context, courseID, moduleID string, answers map[string]int) (*QuizResult, error) {
	module, err := s.findModule(ctx, courseID, moduleID)
	if err != nil {
		return nil, err
	}
	if !module.HasQuiz() {
		return nil, fmt.Errorf("%w: %s", ErrNoQuiz, moduleID)
	}

	result := ScoreQuiz(module.Quiz, answers)
	return &result, nil
}

// Submit scores the answers and, when the user's enrollment points at courseID, records the attempt.
func (s *quizService) Submit(ctx context.Context, userID, courseID, moduleID string, answers map[string]int) (*QuizSubmission, error) {
	result, err := s.Evaluate(ctx, courseID, moduleID, answers)
	if err != nil {
		return nil, err
	}
	submission := &QuizSubmission{Result: *result}

	current, err := s.enrollments.Current(ctx, userID)
	if err != nil {
		if IsNotFound(err) {
			return submission, nil
		}
		return nil, err
	}
	if current.CourseID != courseID {
		s.logger.DebugContext(ctx, "Quiz result not recorded, user enrolled elsewhere",
			"user_id", userID,
			"course_id", courseID,
			"enrolled_course_id", current.CourseID)
		return submission, nil
	}

	enrollment, err := s.enrollments.RecordQuizResult(ctx, userID, courseID, moduleID, *result)
	if err != nil {
		return nil, fmt.Errorf("failed to record quiz result: %w", err)
	}
	submission.Recorded = true
	submission.Enrollment = enrollment
	return submission, nil
}

func (s *quizService) findModule(ctx context.Context, courseID, moduleID string) (*models.Module, error) {
	courses, err := readCollection(ctx, s.repo.Courses(), s.logger)
	if err != nil {
		return nil, err
	}
	course, ok := models.FindCourse(courses, courseID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCourseNotFound, courseID)
	}
	module, ok := course.FindModule(moduleID)
	if !ok {
		return nil, fmt.Errorf("%w: %s in course %s", ErrModuleNotFound, moduleID, courseID)
	}
	return &module, nil
}
