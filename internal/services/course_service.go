package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/lms-store/internal/models"
	"github.com/SAP-F-2025/lms-store/internal/repositories"
	"github.com/SAP-F-2025/lms-store/internal/validator"
)

type courseService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewCourseService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) CourseService {
	return &courseService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *courseService) Create(ctx context.Context, req *CourseRequest) (*models.Course, error) {
	if errs := s.validator.Struct(req); len(errs) > 0 {
		return nil, errs
	}
	if err := s.checkInstructor(ctx, req.InstructorID); err != nil {
		return nil, err
	}

	course := models.Course{
		ID:           uuid.NewString(),
		Title:        strings.TrimSpace(req.Title),
		Category:     strings.TrimSpace(req.Category),
		InstructorID: req.InstructorID,
		Thumbnail:    req.Thumbnail,
		Description:  req.Description,
		Modules:      assignModuleIDs(req.Modules),
		IsDraft:      req.IsDraft,
		CreatedAt:    now(),
	}

	err := s.repo.Courses().Update(ctx, func(courses []models.Course) ([]models.Course, error) {
		return append(courses, course), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.InfoContext(ctx, "Course created",
		"course_id", course.ID,
		"instructor_id", course.InstructorID,
		"modules", len(course.Modules))
	return &course, nil
}

func (s *courseService) Update(ctx context.Context, courseID string, req *CourseRequest) (*models.Course, error) {
	if errs := s.validator.Struct(req); len(errs) > 0 {
		return nil, errs
	}
	if err := s.checkInstructor(ctx, req.InstructorID); err != nil {
		return nil, err
	}

	var updated models.Course
	err := s.mutateCourse(ctx, courseID, func(c *models.Course) error {
		c.Title = strings.TrimSpace(req.Title)
		c.Category = strings.TrimSpace(req.Category)
		c.InstructorID = req.InstructorID
		c.Thumbnail = req.Thumbnail
		c.Description = req.Description
		c.Modules = assignModuleIDs(req.Modules)
		c.IsDraft = req.IsDraft
		updated = *c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Course updated", "course_id", courseID)
	return &updated, nil
}

// Delete removes the course only; enrollments pointing at it are kept.
func (s *courseService) Delete(ctx context.Context, courseID string) error {
	err := s.repo.Courses().Update(ctx, func(courses []models.Course) ([]models.Course, error) {
		kept := courses[:0]
		found := false
		for _, c := range courses {
			if c.ID == courseID {
				found = true
				continue
			}
			kept = append(kept, c)
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrCourseNotFound, courseID)
		}
		return kept, nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Course deleted", "course_id", courseID)
	return nil
}

func (s *courseService) Get(ctx context.Context, courseID string) (*models.Course, error) {
	courses, err := readCollection(ctx, s.repo.Courses(), s.logger)
	if err != nil {
		return nil, err
	}
	course, ok := models.FindCourse(courses, courseID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCourseNotFound, courseID)
	}
	return &course, nil
}

// List returns published courses, or an instructor's courses (drafts included on request).
func (s *courseService) List(ctx context.Context, filter CourseFilter) ([]models.Course, error) {
	courses, err := readCollection(ctx, s.repo.Courses(), s.logger)
	if err != nil {
		return nil, err
	}

	out := make([]models.Course, 0, len(courses))
	for _, c := range courses {
		if filter.InstructorID != "" && c.InstructorID != filter.InstructorID {
			continue
		}
		if c.IsDraft && !filter.IncludeDrafts {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// ===== MODULES & QUIZZES =====

func (s *courseService) AddModule(ctx context.Context, courseID string, req *ModuleRequest) (*models.Module, error) {
	if errs := s.validator.Struct(req); len(errs) > 0 {
		return nil, errs
	}

	module := models.Module{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		VideoURL:    req.VideoURL,
		VideoType:   req.VideoType,
		Description: req.Description,
		Quiz:        assignQuestionIDs(req.Quiz),
	}

	err := s.mutateCourse(ctx, courseID, func(c *models.Course) error {
		c.Modules = append(c.Modules, module)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Module added", "course_id", courseID, "module_id", module.ID)
	return &module, nil
}

// SetQuiz replaces the quiz of a module; an empty request removes it.
func (s *courseService) SetQuiz(ctx context.Context, courseID, moduleID string, req *QuizRequest) (*models.Module, error) {
	if errs := s.validator.Struct(req); len(errs) > 0 {
		return nil, errs
	}

	var updated models.Module
	err := s.mutateCourse(ctx, courseID, func(c *models.Course) error {
		for i := range c.Modules {
			if c.Modules[i].ID == moduleID {
				c.Modules[i].Quiz = assignQuestionIDs(req.Questions)
				updated = c.Modules[i]
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrModuleNotFound, moduleID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Quiz updated",
		"course_id", courseID,
		"module_id", moduleID,
		"questions", len(updated.Quiz))
	return &updated, nil
}

// ===== HELPERS =====

func (s *courseService) mutateCourse(ctx context.Context, courseID string, fn func(*models.Course) error) error {
	return s.repo.Courses().Update(ctx, func(courses []models.Course) ([]models.Course, error) {
		for i := range courses {
			if courses[i].ID == courseID {
				if err := fn(&courses[i]); err != nil {
					return nil, err
				}
				return courses, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrCourseNotFound, courseID)
	})
}

// checkInstructor requires the instructor to exist and hold an authoring role.
func (s *courseService) checkInstructor(ctx context.Context, instructorID string) error {
	users, err := readCollection(ctx, s.repo.Users(), s.logger)
	if err != nil {
		return err
	}
	instructor, ok := models.FindUser(users, instructorID)
	if !ok {
		return NewValidationError("instructorId", "does not match any user", instructorID)
	}
	if !instructor.Role.CanAuthorCourses() {
		return NewBusinessRuleError("ROLE-AUTHOR-REQUIRED", "only staff can own a course",
			map[string]interface{}{"instructor_id": instructorID, "role": instructor.Role})
	}
	return nil
}

func assignModuleIDs(modules []models.Module) []models.Module {
	out := make([]models.Module, len(modules))
	for i, m := range modules {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		m.Quiz = assignQuestionIDs(m.Quiz)
		out[i] = m
	}
	return out
}

func assignQuestionIDs(questions []models.QuizQuestion) []models.QuizQuestion {
	if len(questions) == 0 {
		return nil
	}
	out := make([]models.QuizQuestion, len(questions))
	for i, q := range questions {
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		out[i] = q
	}
	return out
}
