package models

import "errors"

var (
	// ErrNotFound is returned when a document does not exist in the store.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials is returned when a sign-in is rejected.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrPersistence wraps failures to write an order.
	ErrPersistence = errors.New("order persistence failed")

	// ErrValidation is returned when a checkout is blocked before persistence.
	ErrValidation = errors.New("validation failed")
)
