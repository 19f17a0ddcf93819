package events

import (
	"context"
	"testing"

	"detailbook/pkg/model"
)

func TestForTransition(t *testing.T) {
	tests := []struct {
		to   model.BookingStatus
		want Type
	}{
		{model.StatusConfirmed, BookingConfirmed},
		{model.StatusPaid, BookingPaid},
		{model.StatusCheckedIn, BookingStatusChanged},
		{model.StatusCancelled, BookingStatusChanged},
	}
	for _, tt := range tests {
		e := ForTransition("b1", model.StatusPendingDeposit, tt.to)
		if e.Type != tt.want {
			t.Errorf("ForTransition(%s) type = %s, want %s", tt.to, e.Type, tt.want)
		}
		if e.ID == "" || e.OccurredAt.IsZero() {
			t.Errorf("event must carry id and timestamp: %+v", e)
		}
		if e.PreviousStatus != model.StatusPendingDeposit || e.Status != tt.to {
			t.Errorf("statuses not recorded: %+v", e)
		}
	}
}

func TestNopPublisher(t *testing.T) {
	if err := (NopPublisher{}).Publish(context.Background(), New(BookingCreated, "b1")); err != nil {
		t.Errorf("nop publisher returned %v", err)
	}
}
