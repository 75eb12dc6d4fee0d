package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/lms-store/internal/events"
	"github.com/SAP-F-2025/lms-store/internal/models"
	"github.com/SAP-F-2025/lms-store/internal/repositories"
)

type integrityService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewIntegrityService(repo repositories.Repository, logger *slog.Logger) IntegrityService {
	return &integrityService{
		repo:   repo,
		logger: logger,
	}
}

// Check walks the weak references between collections and reports the broken ones.
// Nothing is repaired.
func (s *integrityService) Check(ctx context.Context) (*IntegrityReport, error) {
	users, err := readCollection(ctx, s.repo.Users(), s.logger)
	if err != nil {
		return nil, err
	}
	courses, err := readCollection(ctx, s.repo.Courses(), s.logger)
	if err != nil {
		return nil, err
	}
	enrollments, err := readCollection(ctx, s.repo.Enrollments(), s.logger)
	if err != nil {
		return nil, err
	}
	messages, err := readCollection(ctx, s.repo.Messages(), s.logger)
	if err != nil {
		return nil, err
	}

	report := &IntegrityReport{CheckedAt: now(), Issues: []IntegrityIssue{}}
	report.Issues = append(report.Issues, checkEmails(users)...)
	report.Issues = append(report.Issues, checkInstructors(users, courses)...)
	report.Issues = append(report.Issues, checkEnrollments(users, courses, enrollments)...)
	for _, m := range orphanedMessages(users, messages) {
		report.Issues = append(report.Issues, IntegrityIssue{
			Kind:       IssueOrphanedMessage,
			Collection: events.CollectionMessages,
			RecordID:   m.ID,
			Detail:     fmt.Sprintf("direct message between %s and %s references a missing user", m.FromID, m.ToID),
		})
	}

	s.logger.InfoContext(ctx, "Integrity check completed", "issues", len(report.Issues))
	return report, nil
}

// ===== CHECKS =====

func checkEmails(users []models.User) []IntegrityIssue {
	var issues []IntegrityIssue
	seen := make(map[string]string, len(users))
	for _, u := range users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if email == "" {
			continue
		}
		if first, ok := seen[email]; ok {
			issues = append(issues, IntegrityIssue{
				Kind:       IssueDuplicateEmail,
				Collection: events.CollectionUsers,
				RecordID:   u.ID,
				Detail:     fmt.Sprintf("email %s is already used by %s", u.Email, first),
			})
			continue
		}
		seen[email] = u.ID
	}
	return issues
}

func checkInstructors(users []models.User, courses []models.Course) []IntegrityIssue {
	var issues []IntegrityIssue
	for _, c := range courses {
		instructor, ok := models.FindUser(users, c.InstructorID)
		switch {
		case !ok:
			issues = append(issues, IntegrityIssue{
				Kind:       IssueMissingInstructor,
				Collection: events.CollectionCourses,
				RecordID:   c.ID,
				Detail:     fmt.Sprintf("instructor %s does not exist", c.InstructorID),
			})
		case !instructor.Role.CanAuthorCourses():
			issues = append(issues, IntegrityIssue{
				Kind:       IssueInstructorNotStaff,
				Collection: events.CollectionCourses,
				RecordID:   c.ID,
				Detail:     fmt.Sprintf("instructor %s has role %s", c.InstructorID, instructor.Role),
			})
		}
	}
	return issues
}

func checkEnrollments(users []models.User, courses []models.Course, enrollments []models.Enrollment) []IntegrityIssue {
	var issues []IntegrityIssue
	rows := make(map[string]int, len(enrollments))
	for _, e := range enrollments {
		rows[e.UserID]++
		if rows[e.UserID] == 2 {
			issues = append(issues, IntegrityIssue{
				Kind:       IssueDuplicateEnrollment,
				Collection: events.CollectionEnrollments,
				RecordID:   e.UserID,
				Detail:     "user has more than one enrollment row",
			})
		}

		if _, ok := models.FindUser(users, e.UserID); !ok {
			issues = append(issues, IntegrityIssue{
				Kind:       IssueDanglingEnrollment,
				Collection: events.CollectionEnrollments,
				RecordID:   e.UserID,
				Detail:     fmt.Sprintf("user %s does not exist", e.UserID),
			})
		}
		if _, ok := models.FindCourse(courses, e.CourseID); !ok {
			issues = append(issues, IntegrityIssue{
				Kind:       IssueDanglingEnrollment,
				Collection: events.CollectionEnrollments,
				RecordID:   e.UserID,
				Detail:     fmt.Sprintf("course %s does not exist", e.CourseID),
			})
		}
	}
	return issues
}
