package mongo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	apperrors "detailbook/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestClassifyError(t *testing.T) {
	conflict := apperrors.Conflict("taken")
	if got := ClassifyError("insert", conflict); got != conflict {
		t.Errorf("AppError should pass through unchanged, got %v", got)
	}

	timeout := fmt.Errorf("find: %w", context.DeadlineExceeded)
	if !apperrors.HasCode(ClassifyError("find", timeout), apperrors.CodeUnavailable) {
		t.Errorf("deadline errors should classify as unavailable")
	}

	plain := errors.New("document failed validation")
	if !apperrors.HasCode(ClassifyError("insert", plain), apperrors.CodeInternal) {
		t.Errorf("non-transient errors should classify as internal")
	}
}

func TestIsTransient_ErrorLabels(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"write conflict", mongo.CommandError{Code: 112, Name: "WriteConflict", Labels: []string{"TransientTransactionError"}}, true},
		{"unknown commit", mongo.CommandError{Code: 50, Labels: []string{"UnknownTransactionCommitResult"}}, true},
		{"wrapped label", fmt.Errorf("update booking: %w", mongo.CommandError{Labels: []string{"TransientTransactionError"}}), true},
		{"unlabeled command", mongo.CommandError{Code: 121, Name: "DocumentValidationFailure"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient() = %v, want %v", got, tt.want)
			}
		})
	}

	labeled := mongo.CommandError{Labels: []string{"TransientTransactionError"}}
	if !apperrors.HasCode(ClassifyError("commit", labeled), apperrors.CodeUnavailable) {
		t.Errorf("labeled transaction errors should classify as unavailable")
	}
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, ok := ctx.Deadline(); !ok {
		t.Fatalf("expected a deadline")
	}

	parent, parentCancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer parentCancel()
	child, childCancel := WithTimeout(parent, time.Hour)
	defer childCancel()
	deadline, _ := child.Deadline()
	if time.Until(deadline) > time.Second {
		t.Errorf("child deadline should not outlive the parent's")
	}
}
