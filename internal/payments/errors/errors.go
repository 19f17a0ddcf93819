package errors

import "errors"

var (
	ErrNotFound = errors.New("payment not found")

	// ErrDuplicateIntent means a ledger row for the intent id already exists.
	ErrDuplicateIntent = errors.New("payment intent already recorded")

	// ErrStatusChanged means the payment left the expected status between
	// read and write.
	ErrStatusChanged = errors.New("payment status changed concurrently")
)
