// Package common holds the error taxonomy shared by the service and transport layers.
package common

import "errors"

var (
	// ErrValidation marks a missing or malformed request field.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized marks a missing, invalid, expired or revoked session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound marks a missing, deleted or foreign-owned record.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a uniqueness violation such as a reused email.
	ErrConflict = errors.New("already exists")
	// ErrInvalidCredentials is returned for any failed login, whatever field was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountInactive is returned when a deactivated user authenticates.
	ErrAccountInactive = errors.New("account is deactivated")
	// ErrPersistence marks a failed database write.
	ErrPersistence = errors.New("persistence failed")
)
