package common

import "errors"

var (

	// repository specific errors
	ErrorNotFound = errors.New("not found")

	// service specific errors
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// ErrStoreUnavailable reports that the object store could not serve a
	// read, write or copy.
	ErrStoreUnavailable = errors.New("object store unavailable")

	// ErrTransactionFailure reports that a version freeze could not be made
	// durable. Nothing was recorded.
	ErrTransactionFailure = errors.New("transaction failure")

	// ErrVersionConflict is returned when a concurrent publish moved the
	// asset's current version first.
	ErrVersionConflict = errors.New("version conflict")

	// ErrInvalidToken covers unknown, expired and mismatched access tokens.
	// Callers never learn which one it was.
	ErrInvalidToken = errors.New("invalid token")
)
