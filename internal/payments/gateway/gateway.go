// Package gateway is the boundary to the card processor. It creates payment
// intents and turns signed webhook payloads into gateway-neutral events.
package gateway

import (
	"context"
	"errors"

	"detailbook/pkg/model"
)

// ErrInvalidSignature is returned for any payload that fails authentication.
// It deliberately carries no detail about the payload.
var ErrInvalidSignature = errors.New("invalid event signature")

type EventType string

const (
	EventPaymentSucceeded EventType = "payment-succeeded"
	EventPaymentFailed    EventType = "payment-failed"
	EventIgnored          EventType = "ignored"
)

const (
	MetadataBookingID   = "booking_id"
	MetadataPaymentType = "payment_type"
)

// Event is a verified payment outcome. BookingID and PaymentType come from
// the metadata attached when the intent was created.
type Event struct {
	ID          string
	Type        EventType
	GatewayType string
	IntentID    string
	BookingID   string
	PaymentType model.PaymentType
	AmountCents int64
	Reason      string
}

type IntentRequest struct {
	BookingID      string
	Type           model.PaymentType
	AmountCents    int64
	Currency       string
	IdempotencyKey string
}

type Intent struct {
	ID           string
	ClientSecret string
}

type Gateway interface {
	CreateIntent(ctx context.Context, req *IntentRequest) (*Intent, error)
	// ParseEvent authenticates payload against signature before decoding it.
	ParseEvent(payload []byte, signature string) (*Event, error)
}
