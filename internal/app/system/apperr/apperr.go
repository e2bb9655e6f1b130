// Package apperr defines the error taxonomy shared by stores, ledger services
// and HTTP handlers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInsufficientFund  = errors.New("insufficient loan fund")
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrConflict is returned when an optimistic write kept losing to
	// concurrent writers and the retry budget ran out.
	ErrConflict = errors.New("concurrent update conflict; retry")
)

// ValidationError rejects a request before anything is written.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ErrBranchRequired is returned when a superadmin creates a branch-scoped
// record without naming the branch.
var ErrBranchRequired = &ValidationError{Field: "branch_id", Message: "branch required"}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundf wraps ErrNotFound with context.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// Shortf reports which balance came up short, wrapping sentinel.
func Shortf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
