package validator

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a single rejected field
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s", ve[0].Message)
	}
	msgs := make([]string, 0, len(ve))
	for _, e := range ve {
		msgs = append(msgs, e.Message)
	}
	return fmt.Sprintf("validation failed: %d field errors: %s", len(ve), strings.Join(msgs, "; "))
}

// HasField reports whether one of the errors concerns field.
func (ve ValidationErrors) HasField(field string) bool {
	for _, e := range ve {
		if e.Field == field {
			return true
		}
	}
	return false
}

// IsValidationErrors checks if err carries ValidationErrors
func IsValidationErrors(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}
