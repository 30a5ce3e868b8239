package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an insert violates a unique constraint
	// (merchant email, link reference, or the per-link idempotency key).
	ErrDuplicate = errors.New("duplicate entity")
)
