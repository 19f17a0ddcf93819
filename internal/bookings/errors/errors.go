package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStatusChanged means the booking left the expected status between
	// read and write.
	ErrStatusChanged = errors.New("booking status changed concurrently")

	// ErrLockHeld means another request holds the reservation lock for the date.
	ErrLockHeld = errors.New("booking lock held by another request")
)
