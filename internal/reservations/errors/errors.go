package errors

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	ErrInvalidID = errors.New("invalid reservation ID format")

	// ErrNoID is returned when the store accepts a reservation but yields no
	// identifier for it.
	ErrNoID = errors.New("store assigned no reservation ID")

	// ErrSlotHeld is returned when another request currently holds the
	// advisory lock for the same provider slot.
	ErrSlotHeld = errors.New("slot is held by a concurrent request")
)
