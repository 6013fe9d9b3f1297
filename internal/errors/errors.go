package errors

import (
	"errors"
	"fmt"
)

// Common error types for the client SDK. Callers branch on these with
// errors.Is instead of matching message substrings.
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrSessionExpired     = errors.New("session expired")

	// Refresh errors
	ErrNoRefreshToken = errors.New("no refresh token available")
	ErrRefreshFailed  = errors.New("token refresh failed")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")

	// OAuth exchange errors
	ErrProviderRejected = errors.New("provider rejected authorization code")
	ErrCancelledByUser  = errors.New("cancelled by user")
	ErrUnknownProvider  = errors.New("unknown auth provider")

	// Transport errors
	ErrNetworkUnavailable = errors.New("network unavailable")

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
