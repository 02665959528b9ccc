package common

// Sentinel errors. Callers match them with errors.Is.

import "errors"

var (
	// Credential exchange errors.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Transport errors. Transient, the user may try again.
	ErrNetwork = errors.New("network error, please try again")

	// Session errors. Callers redirect to login on ErrUnauthorized.
	ErrUnauthorized      = errors.New("unauthorized")
	ErrLoginRequired     = errors.New("login required")
	ErrForbidden         = errors.New("insufficient privileges")
	ErrIncompleteSession = errors.New("incomplete session")

	// Token lifecycle errors. ErrRefreshFailed never surfaces alone, it is
	// always joined with ErrUnauthorized after the session has been cleared.
	ErrRefreshFailed = errors.New("token refresh failed")
	ErrTokenExpired  = errors.New("token expired")
	ErrInvalidToken  = errors.New("invalid token")

	// Request validation.
	ErrInvalidInput = errors.New("invalid input")

	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)
