package errors

import "errors"

var (
	ErrNotFound = errors.New("schedule not found")

	ErrInvalidID = errors.New("invalid schedule ID format")

	// ErrDuplicateDay is returned when a provider already published a
	// schedule for the same calendar date.
	ErrDuplicateDay = errors.New("schedule already exists for this provider day")
)
