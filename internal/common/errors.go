// Package common defines shared constants and sentinel errors used across
// DocKeeper components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Idempotency guard: a SENT reminder already exists for this document today.
	ErrAlreadySentToday = errors.New("already sent today")

	// Action token lifecycle errors.
	ErrTokenNotFound  = errors.New("token not found")
	ErrTokenUsed      = errors.New("token already used")
	ErrTokenExpired   = errors.New("token expired")
	ErrActionMismatch = errors.New("token action mismatch")

	// Validation errors.
	ErrInvalidArgument = errors.New("invalid argument")
	ErrDateNotInFuture = errors.New("new expiry date must be in the future")

	// Access token errors (owner CRUD boundary).
	ErrInvalidToken = errors.New("invalid token")
)
