package domain

import "errors"

var (
	// ErrInvalidInput marks a value rejected before any collaborator is called.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCodeExpired marks an authorization code presented after its TTL.
	ErrCodeExpired = errors.New("authorization code expired")

	// ErrCodeInvalid marks a code that is malformed or was signed by someone else.
	ErrCodeInvalid = errors.New("authorization code invalid")
)
