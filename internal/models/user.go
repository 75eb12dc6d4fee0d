package models

import (
	"fmt"
	"strings"
	"time"
)

type UserRole string
type Role = UserRole // Alias for compatibility

const (
	RoleStudent    UserRole = "student"
	RoleInstructor UserRole = "instructor"
	RoleEditor     UserRole = "editor"
	RoleAdmin      UserRole = "admin"
)

// AllRoles lists the closed set of roles in display order.
var AllRoles = []UserRole{RoleStudent, RoleInstructor, RoleEditor, RoleAdmin}

// ErrUnknownRole is returned when a role value is outside the closed set.
var ErrUnknownRole = fmt.Errorf("unknown user role")

// ParseRole maps a stored or user supplied value onto the closed role set.
func ParseRole(value string) (UserRole, error) {
	role := UserRole(strings.ToLower(strings.TrimSpace(value)))
	if err := role.Validate(); err != nil {
		return "", err
	}
	return role, nil
}

// Validate reports ErrUnknownRole for any value outside the closed set.
func (r UserRole) Validate() error {
	switch r {
	case RoleStudent, RoleInstructor, RoleEditor, RoleAdmin:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRole, string(r))
	}
}

// Label is the human readable role name.
func (r UserRole) Label() string {
	switch r {
	case RoleStudent:
		return "Student"
	case RoleInstructor:
		return "Instructor"
	case RoleEditor:
		return "Editor"
	case RoleAdmin:
		return "Administrator"
	default:
		return "Unknown"
	}
}

// IsStaff is true for every role allowed to own a course.
func (r UserRole) IsStaff() bool {
	switch r {
	case RoleInstructor, RoleEditor, RoleAdmin:
		return true
	case RoleStudent:
		return false
	default:
		return false
	}
}

// CanAuthorCourses reports whether the role may create or edit course content.
func (r UserRole) CanAuthorCourses() bool {
	return r.IsStaff()
}

// CanAdminister reports whether the role may manage other users and enrollments.
func (r UserRole) CanAdminister() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleStudent, RoleInstructor, RoleEditor:
		return false
	default:
		return false
	}
}

func (r *UserRole) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

func (r UserRole) MarshalText() ([]byte, error) {
	return []byte(r), nil
}

type User struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	FirstName string   `json:"firstName"`
	Email     string   `json:"email"`
	Role      UserRole `json:"role"`
	Avatar    string   `json:"avatar"`

	// Profile info
	Phone      string `json:"phone,omitempty"`
	City       string `json:"city,omitempty"`
	Country    string `json:"country,omitempty"`
	Bio        string `json:"bio,omitempty"`
	Age        int    `json:"age,omitempty"`
	GradeLevel string `json:"gradeLevel,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// DisplayName is "<first name> <name>" trimmed of missing parts.
func (u User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.Name)
}

// FindUser resolves a weak user reference.
func FindUser(users []User, id string) (User, bool) {
	for _, u := range users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// FindUserByEmail matches emails case-insensitively.
func FindUserByEmail(users []User, email string) (User, bool) {
	email = strings.TrimSpace(email)
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return User{}, false
}
