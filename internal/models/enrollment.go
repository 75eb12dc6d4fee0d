package models

import "time"

const (
	MinProgress = 0
	MaxProgress = 100
)

// ModuleProgress is the persisted completion state of one module for one enrollment.
type ModuleProgress struct {
	Completed   bool       `json:"completed"`
	BestScore   int        `json:"bestScore,omitempty"`
	Attempts    int        `json:"attempts,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Enrollment binds a user to the one course they are currently taking.
type Enrollment struct {
	UserID     string    `json:"userId"`
	CourseID   string    `json:"courseId"`
	EnrolledAt time.Time `json:"enrolledAt"`
	Progress   int       `json:"progress"`

	Modules map[string]ModuleProgress `json:"modules,omitempty"`
}

// ClampProgress bounds a progress value to [0,100].
func ClampProgress(progress int) int {
	switch {
	case progress < MinProgress:
		return MinProgress
	case progress > MaxProgress:
		return MaxProgress
	default:
		return progress
	}
}

// CompletedModules counts modules marked as completed.
func (e Enrollment) CompletedModules() int {
	n := 0
	for _, m := range e.Modules {
		if m.Completed {
			n++
		}
	}
	return n
}

// FindEnrollment returns the first enrollment row of a user.
func FindEnrollment(enrollments []Enrollment, userID string) (Enrollment, bool) {
	for _, e := range enrollments {
		if e.UserID == userID {
			return e, true
		}
	}
	return Enrollment{}, false
}
