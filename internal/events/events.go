package events

import (
	"context"
	"time"

	"detailbook/pkg/model"

	"github.com/google/uuid"
)

type Type string

const (
	BookingCreated       Type = "booking.created"
	BookingConfirmed     Type = "booking.confirmed"
	BookingPaid          Type = "booking.paid"
	BookingStatusChanged Type = "booking.status_changed"
	PaymentFailed        Type = "payment.failed"
	PaymentHeld          Type = "payment.held"
)

const SchemaVersion = "1"

// Event is the notification sent to dashboards and notification senders
// after a booking or payment change has committed.
type Event struct {
	ID             string              `json:"id"`
	Type           Type                `json:"type"`
	BookingID      string              `json:"booking_id"`
	Status         model.BookingStatus `json:"status,omitempty"`
	PreviousStatus model.BookingStatus `json:"previous_status,omitempty"`
	IntentID       string              `json:"intent_id,omitempty"`
	AmountCents    int64               `json:"amount_cents,omitempty"`
	Reason         string              `json:"reason,omitempty"`
	OccurredAt     time.Time           `json:"occurred_at"`
}

func New(eventType Type, bookingID string) *Event {
	return &Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		BookingID:  bookingID,
		OccurredAt: time.Now().UTC(),
	}
}

// ForTransition picks the event type announcing a booking status change.
func ForTransition(bookingID string, from, to model.BookingStatus) *Event {
	eventType := BookingStatusChanged
	switch to {
	case model.StatusConfirmed:
		eventType = BookingConfirmed
	case model.StatusPaid:
		eventType = BookingPaid
	}
	e := New(eventType, bookingID)
	e.Status = to
	e.PreviousStatus = from
	return e
}

type Publisher interface {
	Publish(ctx context.Context, events ...*Event) error
}

// NopPublisher drops events; used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...*Event) error { return nil }
