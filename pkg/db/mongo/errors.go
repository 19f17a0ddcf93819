package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "detailbook/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/x/mongo/driver"
)

// IsTransient reports store failures that are safe to retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	var labeled interface{ HasErrorLabel(string) bool }
	if errors.As(err, &labeled) {
		return labeled.HasErrorLabel(driver.TransientTransactionError) ||
			labeled.HasErrorLabel(driver.UnknownTransactionCommitResult)
	}
	return false
}

// ClassifyError maps a raw store error onto the API error taxonomy.
func ClassifyError(message string, err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	if IsTransient(err) {
		return apperrors.StoreUnavailable(fmt.Errorf("%s: %w", message, err))
	}
	return apperrors.Internal(message, err)
}

// WithTimeout bounds a store call unless it runs inside a transaction, whose
// deadline belongs to the caller.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if mongo.SessionFromContext(ctx) != nil {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}
