package repositories

import (
	"errors"
	"fmt"
)

// ErrUnsupportedVersion marks a persisted envelope written by a newer schema.
var ErrUnsupportedVersion = errors.New("unsupported schema version")

// CorruptionError reports a collection whose persisted content could not be read.
// Get still returns the seed dataset alongside it.
type CorruptionError struct {
	Collection string
	Key        string
	Err        error
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("collection %s (key %s) is unreadable: %v", e.Collection, e.Key, e.Err)
}

func (e *CorruptionError) Unwrap() error {
	return e.Err
}

// IsCorruptionError checks if error is a corruption error
func IsCorruptionError(err error) bool {
	var corruptionErr *CorruptionError
	return errors.As(err, &corruptionErr)
}
