package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "detailbook/internal/bookings/errors"
	"detailbook/internal/events"
	paymentserrors "detailbook/internal/payments/errors"
	"detailbook/internal/payments/gateway"
	"detailbook/internal/payments/repository"
	"detailbook/pkg/config"
	mongotx "detailbook/pkg/db/mongo"
	apperrors "detailbook/pkg/errors"
	"detailbook/pkg/model"
	"detailbook/pkg/money"
)

type Action string

const (
	ActionApplied        Action = "applied"
	ActionDuplicate      Action = "duplicate"
	ActionUnknownPayment Action = "unknown_payment"
	ActionIgnored        Action = "ignored"
	// ActionHeld leaves the payment pending because accepting it would push
	// the succeeded total past the booking total.
	ActionHeld Action = "held"
)

// Outcome describes what an event did. It is logged and never returned to
// the event source, which only learns whether to redeliver.
type Outcome struct {
	Action        Action
	IntentID      string
	BookingID     string
	PaymentStatus model.PaymentStatus
	BookingStatus model.BookingStatus
}

// Reconciler applies gateway payment outcomes to the ledger and bookings.
// Every decision is derived from persisted state, so redelivered and
// reordered events converge on the same result.
type Reconciler interface {
	// HandleEvent authenticates a raw gateway payload before applying it.
	HandleEvent(ctx context.Context, payload []byte, signature string) (*Outcome, error)
	Apply(ctx context.Context, evt *gateway.Event) (*Outcome, error)
}

type reconciler struct {
	payments  repository.PaymentRepository
	bookings  BookingStore
	tx        mongotx.TransactionManager
	gateway   gateway.Gateway
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewReconciler(
	payments repository.PaymentRepository,
	bookings BookingStore,
	tx mongotx.TransactionManager,
	gw gateway.Gateway,
	publisher events.Publisher,
	cfg *config.Config,
) Reconciler {
	return &reconciler{
		payments:  payments,
		bookings:  bookings,
		tx:        tx,
		gateway:   gw,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (r *reconciler) HandleEvent(ctx context.Context, payload []byte, signature string) (*Outcome, error) {
	evt, err := r.gateway.ParseEvent(payload, signature)
	if err != nil {
		if errors.Is(err, gateway.ErrInvalidSignature) {
			r.cfg.Log.Warn("Rejected payment event with invalid signature", "payload_bytes", len(payload))
			return nil, apperrors.Unauthorized("Invalid event signature")
		}
		r.cfg.Log.Error("Failed to decode signed payment event", "error", err)
		return nil, apperrors.InvalidInput("Malformed payment event")
	}
	return r.Apply(ctx, evt)
}

func (r *reconciler) Apply(ctx context.Context, evt *gateway.Event) (*Outcome, error) {
	if evt.Type == gateway.EventIgnored {
		r.cfg.Log.Debug("Ignoring payment event", "event_id", evt.ID, "gateway_type", evt.GatewayType)
		return &Outcome{Action: ActionIgnored}, nil
	}
	if evt.IntentID == "" {
		r.cfg.Log.Warn("Payment event without intent id", "event_id", evt.ID, "type", evt.Type)
		return &Outcome{Action: ActionIgnored}, nil
	}

	var outcome *Outcome
	var pending []*events.Event

	err := r.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		// The driver may rerun this function, so start from a clean slate.
		outcome, pending = nil, nil

		payment, err := r.payments.FindByIntentID(ctx, evt.IntentID)
		if err != nil {
			if errors.Is(err, paymentserrors.ErrNotFound) {
				outcome = &Outcome{Action: ActionUnknownPayment, IntentID: evt.IntentID}
				return nil
			}
			return mongotx.ClassifyError("Failed to load payment", err)
		}
		if evt.BookingID != "" && evt.BookingID != payment.BookingID {
			r.cfg.Log.Warn("Payment event metadata disagrees with ledger",
				"intent_id", evt.IntentID,
				"event_booking_id", evt.BookingID,
				"ledger_booking_id", payment.BookingID,
			)
		}

		switch evt.Type {
		case gateway.EventPaymentSucceeded:
			outcome, pending, err = r.applySucceeded(ctx, payment, evt)
		case gateway.EventPaymentFailed:
			outcome, pending, err = r.applyFailed(ctx, payment, evt)
		default:
			outcome = &Outcome{Action: ActionIgnored, IntentID: evt.IntentID}
		}
		return err
	})
	if err != nil {
		r.cfg.Log.Error("Failed to reconcile payment event",
			"event_id", evt.ID,
			"intent_id", evt.IntentID,
			"type", evt.Type,
			"error", err,
		)
		return nil, err
	}

	r.logOutcome(evt, outcome)
	publish(ctx, r.publisher, r.cfg, pending)
	return outcome, nil
}

func (r *reconciler) applySucceeded(ctx context.Context, payment *model.Payment, evt *gateway.Event) (*Outcome, []*events.Event, error) {
	outcome := &Outcome{IntentID: payment.IntentID, BookingID: payment.BookingID, PaymentStatus: payment.Status}

	if payment.Status.IsFinal() {
		if payment.Status == model.PaymentFailed {
			r.cfg.Log.Error("Succeeded event for a payment already marked failed, needs manual review",
				"intent_id", payment.IntentID,
				"booking_id", payment.BookingID,
			)
		}
		outcome.Action = ActionDuplicate
		return outcome, nil, nil
	}
	if evt.AmountCents != 0 && evt.AmountCents != payment.AmountCents {
		r.cfg.Log.Warn("Gateway amount differs from ledger, using ledger amount",
			"intent_id", payment.IntentID,
			"gateway_amount", money.Format(evt.AmountCents),
			"ledger_amount", money.Format(payment.AmountCents),
		)
	}

	booking, err := r.loadBooking(ctx, payment.BookingID)
	if err != nil {
		return nil, nil, err
	}
	outcome.BookingStatus = booking.Status

	// Writing the booking makes a concurrent success for the same booking
	// fail with a write conflict, so the retry sees this payment in the sum.
	now := r.now()
	if err := r.bookings.BumpLedgerVersion(ctx, booking.ID, now); err != nil {
		return nil, nil, mongotx.ClassifyError("Failed to lock booking ledger", err)
	}

	paidBefore, err := r.payments.SumSucceeded(ctx, booking.ID)
	if err != nil {
		return nil, nil, mongotx.ClassifyError("Failed to sum booking payments", err)
	}
	if paidBefore+payment.AmountCents > booking.TotalCents {
		held := events.New(events.PaymentHeld, booking.ID)
		held.IntentID = payment.IntentID
		held.AmountCents = payment.AmountCents
		held.Reason = "succeeded total would exceed booking total"
		outcome.Action = ActionHeld
		return outcome, []*events.Event{held}, nil
	}

	if err := r.payments.MarkStatus(ctx, payment.IntentID, model.PaymentPending, model.PaymentSucceeded, now); err != nil {
		if errors.Is(err, paymentserrors.ErrStatusChanged) {
			outcome.Action = ActionDuplicate
			return outcome, nil, nil
		}
		return nil, nil, mongotx.ClassifyError("Failed to record payment", err)
	}
	outcome.Action = ActionApplied
	outcome.PaymentStatus = model.PaymentSucceeded

	paid, err := r.payments.SumSucceeded(ctx, booking.ID)
	if err != nil {
		return nil, nil, mongotx.ClassifyError("Failed to sum booking payments", err)
	}

	target, move := model.PaymentTarget(booking.Status, payment.Type, paid, booking.TotalCents)
	if !move {
		return outcome, nil, nil
	}
	if err := r.bookings.UpdateStatus(ctx, booking.ID, booking.Status, target, now); err != nil {
		if errors.Is(err, bookingserrors.ErrStatusChanged) {
			// Someone moved the booking inside our snapshot; rerun from scratch.
			return nil, nil, apperrors.StoreUnavailable(fmt.Errorf("booking %s changed during reconciliation: %w", booking.ID, err))
		}
		return nil, nil, mongotx.ClassifyError("Failed to update booking status", err)
	}

	transition := events.ForTransition(booking.ID, booking.Status, target)
	transition.IntentID = payment.IntentID
	transition.AmountCents = paid
	outcome.BookingStatus = target
	return outcome, []*events.Event{transition}, nil
}

// applyFailed records the failure only; the reservation stands so the
// customer can retry with a new intent.
func (r *reconciler) applyFailed(ctx context.Context, payment *model.Payment, evt *gateway.Event) (*Outcome, []*events.Event, error) {
	outcome := &Outcome{IntentID: payment.IntentID, BookingID: payment.BookingID, PaymentStatus: payment.Status}

	if payment.Status.IsFinal() {
		outcome.Action = ActionDuplicate
		return outcome, nil, nil
	}

	if err := r.payments.MarkStatus(ctx, payment.IntentID, model.PaymentPending, model.PaymentFailed, r.now()); err != nil {
		if errors.Is(err, paymentserrors.ErrStatusChanged) {
			outcome.Action = ActionDuplicate
			return outcome, nil, nil
		}
		return nil, nil, mongotx.ClassifyError("Failed to record payment failure", err)
	}
	outcome.Action = ActionApplied
	outcome.PaymentStatus = model.PaymentFailed

	failed := events.New(events.PaymentFailed, payment.BookingID)
	failed.IntentID = payment.IntentID
	failed.AmountCents = payment.AmountCents
	failed.Reason = evt.Reason
	return outcome, []*events.Event{failed}, nil
}

func (r *reconciler) loadBooking(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := r.bookings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
			// A ledger row pointing nowhere cannot be fixed by redelivery.
			return nil, apperrors.Internal("Payment references a missing booking", err)
		}
		return nil, mongotx.ClassifyError("Failed to load booking", err)
	}
	return booking, nil
}

func (r *reconciler) logOutcome(evt *gateway.Event, outcome *Outcome) {
	fields := []any{
		"event_id", evt.ID,
		"type", evt.Type,
		"intent_id", evt.IntentID,
		"action", outcome.Action,
		"booking_id", outcome.BookingID,
		"payment_status", outcome.PaymentStatus,
		"booking_status", outcome.BookingStatus,
	}

	switch outcome.Action {
	case ActionApplied:
		r.cfg.Log.Info("Payment event applied", fields...)
	case ActionHeld:
		r.cfg.Log.Error("Payment held: succeeded total would exceed booking total, refund review required", fields...)
	case ActionUnknownPayment:
		r.cfg.Log.Warn("Payment event for unknown intent", fields...)
	default:
		r.cfg.Log.Info("Payment event had no effect", fields...)
	}
}
