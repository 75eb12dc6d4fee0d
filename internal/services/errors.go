package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/lms-store/internal/validator"
)

// Common service errors
var (
	ErrNotFound = errors.New("not found")

	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrCourseNotFound     = fmt.Errorf("course %w", ErrNotFound)
	ErrModuleNotFound     = fmt.Errorf("module %w", ErrNotFound)
	ErrEnrollmentNotFound = fmt.Errorf("enrollment %w", ErrNotFound)

	ErrEmailExists        = errors.New("email already registered")
	ErrAttachmentTooLarge = errors.New("attachment exceeds the 100 MiB limit")
	ErrNoQuiz             = errors.New("module has no quiz")
	ErrInvalidTransition  = errors.New("invalid quiz state transition")
)

// ValidationError is a single rejected input detected by a service rule
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

// BusinessRuleError reports an operation refused by a domain rule
type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message, Context: context}
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule %s violated: %s", e.Rule, e.Message)
}

// IsValidationError checks if error is a validation error, from a service rule or the struct validator
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr) || validator.IsValidationErrors(err)
}

// IsBusinessRuleError checks if error is a business rule error
func IsBusinessRuleError(err error) bool {
	var ruleErr *BusinessRuleError
	return errors.As(err, &ruleErr)
}

// IsNotFound checks if error is one of the not found errors
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
