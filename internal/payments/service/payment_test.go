package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"detailbook/internal/payments/gateway"
	"detailbook/internal/payments/validator"
	"detailbook/pkg/config"
	apperrors "detailbook/pkg/errors"
	"detailbook/pkg/logger"
	"detailbook/pkg/model"
	"detailbook/test/memstore"
)

const testWebhookSecret = "whsec_test_secret"

// fakeGateway hands out one intent per idempotency key, like the processor
// does, and verifies events with the real signature scheme.
type fakeGateway struct {
	mu        sync.Mutex
	intents   map[string]string
	requests  []*gateway.IntentRequest
	createErr error
	verifier  gateway.Gateway
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		intents:  make(map[string]string),
		verifier: gateway.NewStripeVerifier(testWebhookSecret),
	}
}

func (g *fakeGateway) CreateIntent(_ context.Context, req *gateway.IntentRequest) (*gateway.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.requests = append(g.requests, req)
	id, ok := g.intents[req.IdempotencyKey]
	if !ok {
		id = fmt.Sprintf("pi_%d", len(g.intents)+1)
		g.intents[req.IdempotencyKey] = id
	}
	return &gateway.Intent{ID: id, ClientSecret: id + "_secret"}, nil
}

func (g *fakeGateway) ParseEvent(payload []byte, signature string) (*gateway.Event, error) {
	return g.verifier.ParseEvent(payload, signature)
}

func newTestConfig() *config.Config {
	return &config.Config{
		Log:          logger.New(logger.Config{Level: "error", Format: "json", Output: io.Discard}),
		DepositCents: 3500,
		Currency:     "usd",
	}
}

func seedBooking(t *testing.T, store *memstore.Store, status model.BookingStatus, total int64) *model.Booking {
	t.Helper()
	booking := &model.Booking{
		CustomerID:      "65f1c0ffee0000000000c001",
		ServiceID:       1,
		VariantID:       11,
		AppointmentDate: "2026-03-02",
		AppointmentTime: "10:00",
		StartMinute:     600,
		EndMinute:       660,
		DurationMin:     60,
		Status:          status,
		DepositCents:    3500,
		TotalCents:      total,
	}
	if err := store.Bookings().Create(context.Background(), booking); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return booking
}

func seedPayment(t *testing.T, store *memstore.Store, bookingID, intentID string, paymentType model.PaymentType, amount int64) {
	t.Helper()
	err := store.Payments().Create(context.Background(), &model.Payment{
		BookingID:   bookingID,
		IntentID:    intentID,
		AmountCents: amount,
		Currency:    "usd",
		Status:      model.PaymentPending,
		Type:        paymentType,
	})
	if err != nil {
		t.Fatalf("seed payment: %v", err)
	}
}

func newTestPaymentService(store *memstore.Store, gw gateway.Gateway) PaymentService {
	cfg := newTestConfig()
	return NewPaymentService(store.Payments(), store.Bookings(), gw, validator.NewPaymentValidator(cfg.Log), cfg)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if !apperrors.HasCode(err, code) {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

func TestCreateIntent_Deposit(t *testing.T) {
	store := memstore.New()
	gw := newFakeGateway()
	svc := newTestPaymentService(store, gw)
	booking := seedBooking(t, store, model.StatusPendingDeposit, 20000)

	result, err := svc.CreateIntent(context.Background(), booking.ID, &model.PaymentIntentRequest{Type: "deposit"}, "key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Amount != "35.00" || result.Type != model.PaymentTypeDeposit || result.ClientSecret == "" {
		t.Errorf("unexpected result: %+v", result)
	}

	payments := store.AllPayments()
	if len(payments) != 1 {
		t.Fatalf("payments = %d, want 1", len(payments))
	}
	p := payments[0]
	if p.Status != model.PaymentPending || p.AmountCents != 3500 || p.IntentID != result.IntentID {
		t.Errorf("unexpected ledger row: %+v", p)
	}
	if gw.requests[0].IdempotencyKey != booking.ID+":deposit:key-1" {
		t.Errorf("idempotency key = %q", gw.requests[0].IdempotencyKey)
	}
}

func TestCreateIntent_ReplayedRequestKeepsOneRow(t *testing.T) {
	store := memstore.New()
	svc := newTestPaymentService(store, newFakeGateway())
	booking := seedBooking(t, store, model.StatusPendingDeposit, 20000)
	ctx := context.Background()

	first, err := svc.CreateIntent(ctx, booking.ID, &model.PaymentIntentRequest{Type: "deposit"}, "same")
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	second, err := svc.CreateIntent(ctx, booking.ID, &model.PaymentIntentRequest{Type: "deposit"}, "same")
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if first.IntentID != second.IntentID {
		t.Errorf("replay produced a new intent: %s vs %s", first.IntentID, second.IntentID)
	}
	if n := len(store.AllPayments()); n != 1 {
		t.Errorf("payments = %d, want 1", n)
	}
}

func TestCreateIntent_FullPaymentIsRemainingBalance(t *testing.T) {
	store := memstore.New()
	svc := newTestPaymentService(store, newFakeGateway())
	booking := seedBooking(t, store, model.StatusConfirmed, 20000)
	seedPayment(t, store, booking.ID, "pi_dep", model.PaymentTypeDeposit, 3500)
	if err := store.Payments().MarkStatus(context.Background(), "pi_dep", model.PaymentPending, model.PaymentSucceeded, time.Now()); err != nil {
		t.Fatalf("mark deposit: %v", err)
	}

	result, err := svc.CreateIntent(context.Background(), booking.ID, &model.PaymentIntentRequest{Type: "full_payment"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Amount != "165.00" {
		t.Errorf("amount = %s, want 165.00", result.Amount)
	}
}

func TestCreateIntent_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		status model.BookingStatus
		paid   int64
		req    string
		id     string
		code   string
	}{
		{name: "unknown type", status: model.StatusPendingDeposit, req: "tip", code: apperrors.CodeValidation},
		{name: "missing type", status: model.StatusPendingDeposit, req: "", code: apperrors.CodeValidation},
		{name: "deposit after confirmation", status: model.StatusConfirmed, paid: 3500, req: "deposit", code: apperrors.CodeConflict},
		{name: "cancelled booking", status: model.StatusCancelled, req: "full_payment", code: apperrors.CodeConflict},
		{name: "already paid", status: model.StatusPaid, paid: 20000, req: "full_payment", code: apperrors.CodeConflict},
		{name: "unknown booking", status: model.StatusPendingDeposit, req: "deposit", id: "65f1c0ffee0000000000ffff", code: apperrors.CodeNotFound},
		{name: "malformed booking id", status: model.StatusPendingDeposit, req: "deposit", id: "xyz", code: apperrors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memstore.New()
			svc := newTestPaymentService(store, newFakeGateway())
			booking := seedBooking(t, store, tt.status, 20000)
			if tt.paid > 0 {
				seedPayment(t, store, booking.ID, "pi_prior", model.PaymentTypeFullPayment, tt.paid)
				_ = store.Payments().MarkStatus(context.Background(), "pi_prior", model.PaymentPending, model.PaymentSucceeded, time.Now())
			}
			id := booking.ID
			if tt.id != "" {
				id = tt.id
			}

			_, err := svc.CreateIntent(context.Background(), id, &model.PaymentIntentRequest{Type: tt.req}, "k")
			assertCode(t, err, tt.code)
		})
	}
}

func TestCreateIntent_GatewayFailure(t *testing.T) {
	store := memstore.New()
	gw := newFakeGateway()
	gw.createErr = errors.New("processor down")
	svc := newTestPaymentService(store, gw)
	booking := seedBooking(t, store, model.StatusPendingDeposit, 20000)

	_, err := svc.CreateIntent(context.Background(), booking.ID, &model.PaymentIntentRequest{Type: "deposit"}, "k")
	assertCode(t, err, apperrors.CodeUnavailable)
	if n := len(store.AllPayments()); n != 0 {
		t.Errorf("payments = %d, want 0", n)
	}
}

func TestAmountDue(t *testing.T) {
	tests := []struct {
		name    string
		status  model.BookingStatus
		deposit int64
		total   int64
		paid    int64
		typ     model.PaymentType
		want    int64
	}{
		{"deposit", model.StatusPendingDeposit, 3500, 20000, 0, model.PaymentTypeDeposit, 3500},
		{"deposit capped by balance", model.StatusPendingDeposit, 3500, 20000, 18000, model.PaymentTypeDeposit, 2000},
		{"full before deposit", model.StatusPendingDeposit, 3500, 20000, 0, model.PaymentTypeFullPayment, 20000},
		{"full after deposit", model.StatusConfirmed, 3500, 20000, 3500, model.PaymentTypeFullPayment, 16500},
		{"balance after check-in", model.StatusCheckedIn, 3500, 20000, 3500, model.PaymentTypeFullPayment, 16500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking := &model.Booking{Status: tt.status, DepositCents: tt.deposit, TotalCents: tt.total}
			got, err := amountDue(booking, tt.typ, tt.paid)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("amountDue = %d, want %d", got, tt.want)
			}
		})
	}
}
