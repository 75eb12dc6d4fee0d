package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/lms-store/internal/models"
	"github.com/SAP-F-2025/lms-store/internal/repositories"
)

const (
	usersSheet       = "Users"
	enrollmentsSheet = "Enrollments"
)

type reportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewReportService(repo repositories.Repository, logger *slog.Logger) ReportService {
	return &reportService{
		repo:   repo,
		logger: logger,
	}
}

// ExportRoster writes an XLSX workbook with a Users sheet and an Enrollments sheet.
// Enrollment rows whose user or course is missing keep blank name columns.
func (s *reportService) ExportRoster(ctx context.Context, w io.Writer) error {
	users, err := readCollection(ctx, s.repo.Users(), s.logger)
	if err != nil {
		return err
	}
	courses, err := readCollection(ctx, s.repo.Courses(), s.logger)
	if err != nil {
		return err
	}
	enrollments, err := readCollection(ctx, s.repo.Enrollments(), s.logger)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", usersSheet); err != nil {
		return fmt.Errorf("failed to name users sheet: %w", err)
	}
	if _, err := f.NewSheet(enrollmentsSheet); err != nil {
		return fmt.Errorf("failed to create enrollments sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	userRows := [][]interface{}{{"ID", "First name", "Name", "Email", "Role", "Phone", "City", "Country", "Created at"}}
	for _, u := range users {
		userRows = append(userRows, []interface{}{
			u.ID, u.FirstName, u.Name, u.Email, u.Role.Label(), u.Phone, u.City, u.Country, formatTime(u.CreatedAt),
		})
	}

	enrollmentRows := [][]interface{}{{"User ID", "Learner", "Course ID", "Course", "Enrolled at", "Progress", "Completed modules"}}
	for _, e := range enrollments {
		var learner, title string
		if u, ok := models.FindUser(users, e.UserID); ok {
			learner = u.DisplayName()
		}
		if c, ok := models.FindCourse(courses, e.CourseID); ok {
			title = c.Title
		}
		enrollmentRows = append(enrollmentRows, []interface{}{
			e.UserID, learner, e.CourseID, title, formatTime(e.EnrolledAt), e.Progress, e.CompletedModules(),
		})
	}

	for sheet, rows := range map[string][][]interface{}{usersSheet: userRows, enrollmentsSheet: enrollmentRows} {
		if err := writeRows(f, sheet, rows); err != nil {
			return err
		}
		if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
			return fmt.Errorf("failed to style %s header: %w", sheet, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.InfoContext(ctx, "Roster exported",
		"users", len(users),
		"enrollments", len(enrollments))
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
