// Package common defines shared constants and sentinel errors used across
// client and server layers of BoardPack. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorConflict     = errors.New("already exists")

	// Application workflow errors.
	ErrInvalidTransition = errors.New("invalid status transition")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Document upload errors.
	ErrUploadTooLarge = errors.New("upload exceeds size limit")

	// Client-side errors (desk local store and upload manager).
	ErrStorageFull    = errors.New("local storage full")
	ErrUploadInFlight = errors.New("upload already in flight")
)
