package errors

import "errors"

var (
	ErrVariantNotFound = errors.New("service variant not found")
)
