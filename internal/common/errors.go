// Package common defines shared constants and sentinel errors used across
// client and server layers of gophauth. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("username already exists")

	// Service-level errors.
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("invalid credentials")
	ErrValidation   = errors.New("validation error")

	// Token errors. ErrBadSignature and ErrTokenExpired both match ErrInvalidToken.
	ErrInvalidToken = errors.New("invalid token")
	ErrBadSignature = fmt.Errorf("%w: bad signature", ErrInvalidToken)
	ErrTokenExpired = fmt.Errorf("%w: expired", ErrInvalidToken)
)

// ValidationError describes a single malformed input field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrValidation, e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError returns a *ValidationError for field.
func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}
