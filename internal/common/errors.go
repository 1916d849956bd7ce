// Package common defines shared constants and sentinel errors used across
// the ReadEase server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Signup.
	ErrDuplicateEmail = errors.New("email already exists")
	ErrRoleNotFound   = errors.New("default role not found")

	// Login / logout.
	ErrUnknownEmail         = errors.New("email is not registered")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrSessionAlreadyActive = errors.New("session already active")
	ErrUserNotFound         = errors.New("user not found")

	// Forgot-password flow.
	ErrInvalidEmail   = errors.New("invalid email")
	ErrInvalidToken   = errors.New("invalid token")
	ErrInvalidRequest = errors.New("invalid request")

	// Token codec errors (malformed, unsigned or tampered token).
	ErrDecode = errors.New("token decode error")
)
