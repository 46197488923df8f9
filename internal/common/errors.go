// Package common defines shared sentinel errors used across the moodboard
// manager client layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal      = errors.New("internal error")
	ErrAlreadyExists = errors.New("already exists")
)
