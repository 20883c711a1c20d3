package services

import (
	"regexp"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

const (
	UsernameMinLen = 3
	UsernameMaxLen = 100
	PasswordMinLen = 6
	PasswordMaxLen = 256

	DefaultPageLimit = 100
	MaxPageLimit     = 100
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9._@+-]+$`)

func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	switch {
	case n < UsernameMinLen || n > UsernameMaxLen:
		return common.NewValidationError("username", "must be between 3 and 100 characters")
	case !usernameRe.MatchString(username):
		return common.NewValidationError("username", "may contain only letters, digits and . _ @ + -")
	}
	return nil
}

func validatePassword(field, password string) error {
	n := utf8.RuneCountInString(password)
	if n < PasswordMinLen || n > PasswordMaxLen {
		return common.NewValidationError(field, "must be between 6 and 256 characters")
	}
	return nil
}

// validateRegistration checks shape only; it never touches the store.
func validateRegistration(username, password string) error {
	if err := validateUsername(username); err != nil {
		return err
	}
	return validatePassword("password", password)
}

// validateLogin only requires both fields. Length rules belong to
// registration; a wrong-shaped login is just a failed login.
func validateLogin(username, password string) error {
	if username == "" {
		return common.NewValidationError("username", "field required")
	}
	if password == "" {
		return common.NewValidationError("password", "field required")
	}
	return nil
}

// normalizePage applies listing defaults: limit 0 means the default and
// anything above MaxPageLimit is clamped.
func normalizePage(skip, limit int) (int, int, error) {
	if skip < 0 {
		return 0, 0, common.NewValidationError("skip", "must not be negative")
	}
	if limit < 0 {
		return 0, 0, common.NewValidationError("limit", "must not be negative")
	}
	if limit == 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return skip, limit, nil
}
