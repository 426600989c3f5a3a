package repositories

import (
	"errors"
	"fmt"
	"strings"

	"canteen/internal/database"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when the unique email index rejects an insert.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrStatusConflict is returned when an order no longer holds the status
	// the caller expected to move it from.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

// isUniqueViolation recognizes unique constraint failures. TranslateError
// covers the postgres and sqlite dialects; the string match catches drivers
// that return the raw message.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// persistence wraps a raw store failure, leaving gateway errors that are
// already classified untouched.
func persistence(what string, err error) error {
	if errors.Is(err, database.ErrConnection) || errors.Is(err, database.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", database.ErrPersistence, what, err)
}
