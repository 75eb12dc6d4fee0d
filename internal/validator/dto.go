package validator

import (
	"github.com/SAP-F-2025/lms-store/internal/models"
)

// RegisterRequest is the self-service sign-up form; the role is always student.
type RegisterRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
}

// StaffRequest is used by an administrator to create a staff or admin account
type StaffRequest struct {
	Name      string          `json:"name" validate:"required,max=100"`
	FirstName string          `json:"firstName" validate:"required,max=100"`
	Email     string          `json:"email" validate:"required,email"`
	Role      models.UserRole `json:"role" validate:"required,role"`
}

// ProfileUpdateRequest carries the editable profile fields of a user.
type ProfileUpdateRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	FirstName  string `json:"firstName" validate:"required,max=100"`
	Phone      string `json:"phone" validate:"omitempty,phone"`
	City       string `json:"city" validate:"omitempty,max=100"`
	Country    string `json:"country" validate:"omitempty,max=100"`
	Bio        string `json:"bio" validate:"omitempty,max=1000"`
	Age        int    `json:"age" validate:"omitempty,min=5,max=120"`
	GradeLevel string `json:"gradeLevel" validate:"omitempty,max=100"`
	Avatar     string `json:"avatar" validate:"omitempty,max=2048"`
}

type CourseRequest struct {
	Title        string          `json:"title" validate:"required,max=200"`
	Category     string          `json:"category" validate:"required,max=100"`
	InstructorID string          `json:"instructorId" validate:"required"`
	Thumbnail    string          `json:"thumbnail" validate:"omitempty,max=2048"`
	Description  string          `json:"description" validate:"omitempty,max=5000"`
	Modules      []models.Module `json:"modules" validate:"omitempty,dive"`
	IsDraft      bool            `json:"isDraft"`
}

type ModuleRequest struct {
	Title       string                `json:"title" validate:"required,max=200"`
	VideoURL    string                `json:"videoUrl" validate:"omitempty,max=2048"`
	VideoType   models.VideoType      `json:"videoType" validate:"required,video_type"`
	Description string                `json:"description" validate:"omitempty,max=5000"`
	Quiz        []models.QuizQuestion `json:"quiz" validate:"omitempty,dive"`
}

// QuizRequest replaces the quiz of a module.
type QuizRequest struct {
	Questions []models.QuizQuestion `json:"questions" validate:"omitempty,dive"`
}
