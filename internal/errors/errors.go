package errors

import (
	"errors"
	"fmt"
)

// Common error types for the authentication core
var (
	// Interactive flow errors
	ErrValidation        = errors.New("missing required fields")
	ErrChallengeIssuance = errors.New("challenge issuance failed")
	ErrVerification      = errors.New("passcode verification failed")
	ErrSessionExpired    = errors.New("session expired")

	// Redirect exchange errors
	ErrMissingSessionID = errors.New("no session id found")
	ErrExchange         = errors.New("session exchange failed")

	// Session errors
	ErrUnauthenticated = errors.New("not authenticated")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
