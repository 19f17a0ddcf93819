package model

import (
	"encoding/json"
	"time"

	"detailbook/pkg/money"
)

// Payment is one ledger row, keyed by the gateway's intent id.
type Payment struct {
	ID          string        `json:"id,omitempty" bson:"_id,omitempty"`
	BookingID   string        `json:"booking_id" bson:"booking_id"`
	IntentID    string        `json:"intent_id" bson:"intent_id"`
	AmountCents int64         `json:"amount_cents" bson:"amount_cents"`
	Currency    string        `json:"currency" bson:"currency"`
	Status      PaymentStatus `json:"status" bson:"status"`
	Type        PaymentType   `json:"payment_type" bson:"payment_type"`
	CreatedAt   time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" bson:"updated_at"`
}

type PaymentView struct {
	*Payment
	Amount json.Number `json:"amount"`
}

func NewPaymentView(p *Payment) *PaymentView {
	return &PaymentView{Payment: p, Amount: money.Number(p.AmountCents)}
}

type PaymentIntentRequest struct {
	Type string `json:"payment_type" validate:"required,oneof=deposit full_payment"`
}

// PaymentIntentResult is handed to the client to complete payment.
type PaymentIntentResult struct {
	BookingID    string      `json:"booking_id"`
	IntentID     string      `json:"intent_id"`
	ClientSecret string      `json:"client_secret"`
	Type         PaymentType `json:"payment_type"`
	Amount       json.Number `json:"amount"`
	Currency     string      `json:"currency"`
}
