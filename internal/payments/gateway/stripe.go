package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"detailbook/pkg/model"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const SignatureHeader = "Stripe-Signature"

const (
	stripeIntentSucceeded = "payment_intent.succeeded"
	stripeIntentFailed    = "payment_intent.payment_failed"
)

type stripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) Gateway {
	return &stripeGateway{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
	}
}

// NewStripeVerifier builds a gateway that can only parse events, for
// processes that never create intents.
func NewStripeVerifier(webhookSecret string) Gateway {
	return &stripeGateway{webhookSecret: webhookSecret}
}

func (g *stripeGateway) CreateIntent(ctx context.Context, req *IntentRequest) (*Intent, error) {
	if g.api == nil {
		return nil, fmt.Errorf("stripe client not configured")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata(MetadataBookingID, req.BookingID)
	params.AddMetadata(MetadataPaymentType, string(req.Type))
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (g *stripeGateway) ParseEvent(payload []byte, signature string) (*Event, error) {
	if g.webhookSecret == "" || signature == "" {
		return nil, ErrInvalidSignature
	}

	evt, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, ErrInvalidSignature
	}

	out := &Event{ID: evt.ID, GatewayType: string(evt.Type), Type: EventIgnored}
	switch string(evt.Type) {
	case stripeIntentSucceeded:
		out.Type = EventPaymentSucceeded
	case stripeIntentFailed:
		out.Type = EventPaymentFailed
	default:
		return out, nil
	}

	if evt.Data == nil {
		return nil, fmt.Errorf("event %s has no data", evt.ID)
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("failed to decode payment intent: %w", err)
	}

	out.IntentID = pi.ID
	out.AmountCents = pi.Amount
	out.BookingID = pi.Metadata[MetadataBookingID]
	if paymentType, ok := model.ParsePaymentType(pi.Metadata[MetadataPaymentType]); ok {
		out.PaymentType = paymentType
	}
	if pi.LastPaymentError != nil {
		out.Reason = pi.LastPaymentError.Msg
	}
	return out, nil
}
