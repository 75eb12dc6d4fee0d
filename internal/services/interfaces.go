package services

import (
	"context"
	"io"
	"time"

	"github.com/SAP-F-2025/lms-store/internal/models"
	"github.com/SAP-F-2025/lms-store/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use validator request types
type RegisterRequest = validator.RegisterRequest
type StaffRequest = validator.StaffRequest
type ProfileUpdateRequest = validator.ProfileUpdateRequest
type CourseRequest = validator.CourseRequest
type ModuleRequest = validator.ModuleRequest
type QuizRequest = validator.QuizRequest

type CourseFilter struct {
	InstructorID  string
	IncludeDrafts bool
}

// QuizResult is the outcome of scoring one submission.
type QuizResult struct {
	Correct int  `json:"correct"`
	Total   int  `json:"total"`
	Score   int  `json:"score"`
	Passed  bool `json:"passed"`
}

type QuizSubmission struct {
	Result     QuizResult         `json:"result"`
	Recorded   bool               `json:"recorded"`
	Enrollment *models.Enrollment `json:"enrollment,omitempty"`
}

type SendMessageRequest struct {
	FromID     string             `json:"fromId"`
	ToID       string             `json:"toId"`
	Text       string             `json:"text"`
	Attachment *models.Attachment `json:"attachment,omitempty"`
}

// Conversation summarizes one channel as seen by a user.
type Conversation struct {
	ChannelID    string              `json:"channelId"`
	Peer         *models.User        `json:"peer,omitempty"`
	MessageCount int                 `json:"messageCount"`
	LastMessage  *models.ChatMessage `json:"lastMessage,omitempty"`
}

type IntegrityIssueKind string

const (
	IssueDanglingEnrollment  IntegrityIssueKind = "dangling_enrollment"
	IssueDuplicateEnrollment IntegrityIssueKind = "duplicate_enrollment"
	IssueOrphanedMessage     IntegrityIssueKind = "orphaned_message"
	IssueMissingInstructor   IntegrityIssueKind = "missing_instructor"
	IssueInstructorNotStaff  IntegrityIssueKind = "instructor_not_staff"
	IssueDuplicateEmail      IntegrityIssueKind = "duplicate_email"
)

type IntegrityIssue struct {
	Kind       IntegrityIssueKind `json:"kind"`
	Collection string             `json:"collection"`
	RecordID   string             `json:"recordId"`
	Detail     string             `json:"detail"`
}

type IntegrityReport struct {
	CheckedAt time.Time        `json:"checkedAt"`
	Issues    []IntegrityIssue `json:"issues"`
}

// OK is true when no issue was found.
func (r *IntegrityReport) OK() bool {
	return len(r.Issues) == 0
}

// ===== SERVICE INTERFACES =====

type UserService interface {
	Register(ctx context.Context, req *RegisterRequest) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, role models.UserRole) ([]models.User, error)
	UpdateProfile(ctx context.Context, userID string, req *ProfileUpdateRequest) (*models.User, error)

	// Administration, actorID must hold the admin role
	AddStaff(ctx context.Context, actorID string, req *StaffRequest) (*models.User, error)
	ChangeRole(ctx context.Context, actorID, userID string, role models.UserRole) (*models.User, error)
	Remove(ctx context.Context, actorID, userID string) error
}

type CourseService interface {
	Create(ctx context.Context, req *CourseRequest) (*models.Course, error)
	Update(ctx context.Context, courseID string, req *CourseRequest) (*models.Course, error)
	Delete(ctx context.Context, courseID string) error
	Get(ctx context.Context, courseID string) (*models.Course, error)
	List(ctx context.Context, filter CourseFilter) ([]models.Course, error)
	AddModule(ctx context.Context, courseID string, req *ModuleRequest) (*models.Module, error)
	SetQuiz(ctx context.Context, courseID, moduleID string, req *QuizRequest) (*models.Module, error)
}

type EnrollmentService interface {
	Reassign(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	SetProgress(ctx context.Context, userID string, progress int) (*models.Enrollment, error)
	Current(ctx context.Context, userID string) (*models.Enrollment, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error)
	Remove(ctx context.Context, userID string) error
	CompleteModule(ctx context.Context, userID, moduleID string) (*models.Enrollment, error)
	RecordQuizResult(ctx context.Context, userID, courseID, moduleID string, result QuizResult) (*models.Enrollment, error)
}

type QuizService interface {
	Evaluate(ctx context.Context, courseID, moduleID string, answers map[string]int) (*QuizResult, error)
	Submit(ctx context.Context, userID, courseID, moduleID string, answers map[string]int) (*QuizSubmission, error)
}

type ChatService interface {
	Send(ctx context.Context, req *SendMessageRequest) (*models.ChatMessage, error)
	GlobalChannel(ctx context.Context) ([]models.ChatMessage, error)
	DirectChannel(ctx context.Context, userA, userB string) ([]models.ChatMessage, error)
	Contacts(ctx context.Context, userID string) ([]models.User, error)
	Conversations(ctx context.Context, userID string) ([]Conversation, error)
	OrphanedMessages(ctx context.Context) ([]models.ChatMessage, error)
	SenderLabel(ctx context.Context, senderID string) (string, error)
	EncodeAttachment(ctx context.Context, name, mimeType string, size int64, r io.Reader) (*models.Attachment, error)
}

type IntegrityService interface {
	Check(ctx context.Context) (*IntegrityReport, error)
}

type ReportService interface {
	ExportRoster(ctx context.Context, w io.Writer) error
}

type ServiceManager interface {
	User() UserService
	Course() CourseService
	Enrollment() EnrollmentService
	Quiz() QuizService
	Chat() ChatService
	Integrity() IntegrityService
	Report() ReportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
