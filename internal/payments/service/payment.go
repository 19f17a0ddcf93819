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
	"detailbook/internal/payments/validator"
	"detailbook/pkg/config"
	mongotx "detailbook/pkg/db/mongo"
	apperrors "detailbook/pkg/errors"
	"detailbook/pkg/model"
	"detailbook/pkg/money"

	"github.com/google/uuid"
)

// BookingStore is the slice of the booking repository the ledger needs.
type BookingStore interface {
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus, at time.Time) error
	BumpLedgerVersion(ctx context.Context, id string, at time.Time) error
}

type PaymentService interface {
	// CreateIntent opens a gateway intent for the deposit or the remaining
	// balance and records it as a pending ledger row.
	CreateIntent(ctx context.Context, bookingID string, req *model.PaymentIntentRequest, idempotencyKey string) (*model.PaymentIntentResult, error)
}

type paymentService struct {
	repo      repository.PaymentRepository
	bookings  BookingStore
	gateway   gateway.Gateway
	validator *validator.PaymentValidator
	cfg       *config.Config
}

func NewPaymentService(
	repo repository.PaymentRepository,
	bookings BookingStore,
	gw gateway.Gateway,
	validator *validator.PaymentValidator,
	cfg *config.Config,
) PaymentService {
	return &paymentService{
		repo:      repo,
		bookings:  bookings,
		gateway:   gw,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *paymentService) CreateIntent(ctx context.Context, bookingID string, req *model.PaymentIntentRequest, idempotencyKey string) (*model.PaymentIntentResult, error) {
	paymentType, details := s.validator.ValidateIntentRequest(req)
	if details != nil {
		return nil, apperrors.Validation("Invalid payment request", details)
	}

	booking, err := findBooking(ctx, s.bookings, bookingID, s.cfg)
	if err != nil {
		return nil, err
	}

	paid, err := s.repo.SumSucceeded(ctx, booking.ID)
	if err != nil {
		s.cfg.Log.Error("Failed to sum booking payments", "booking_id", booking.ID, "error", err)
		return nil, mongotx.ClassifyError("Failed to load booking payments", err)
	}

	amount, err := amountDue(booking, paymentType, paid)
	if err != nil {
		return nil, err
	}

	if idempotencyKey == "" {
		idempotencyKey = uuid.New().String()
	}
	intent, err := s.gateway.CreateIntent(ctx, &gateway.IntentRequest{
		BookingID:      booking.ID,
		Type:           paymentType,
		AmountCents:    amount,
		Currency:       s.cfg.Currency,
		IdempotencyKey: fmt.Sprintf("%s:%s:%s", booking.ID, paymentType, idempotencyKey),
	})
	if err != nil {
		s.cfg.Log.Error("Payment gateway rejected intent creation",
			"booking_id", booking.ID,
			"payment_type", paymentType,
			"error", err,
		)
		return nil, apperrors.Unavailable("Payment gateway")
	}

	payment := &model.Payment{
		BookingID:   booking.ID,
		IntentID:    intent.ID,
		AmountCents: amount,
		Currency:    s.cfg.Currency,
		Status:      model.PaymentPending,
		Type:        paymentType,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		if !errors.Is(err, paymentserrors.ErrDuplicateIntent) {
			s.cfg.Log.Error("Failed to record payment intent",
				"booking_id", booking.ID,
				"intent_id", intent.ID,
				"error", err,
			)
			return nil, mongotx.ClassifyError("Failed to record payment", err)
		}
		// A replayed request got the same intent back from the gateway.
		s.cfg.Log.Info("Payment intent already recorded", "intent_id", intent.ID)
	}

	s.cfg.Log.Info("Payment intent created",
		"booking_id", booking.ID,
		"intent_id", intent.ID,
		"payment_type", paymentType,
		"amount", money.Format(amount),
	)

	return &model.PaymentIntentResult{
		BookingID:    booking.ID,
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Type:         paymentType,
		Amount:       money.Number(amount),
		Currency:     s.cfg.Currency,
	}, nil
}

// amountDue prices a new intent. Deposits are only taken before
// confirmation; the balance is whatever the succeeded ledger leaves open.
func amountDue(booking *model.Booking, paymentType model.PaymentType, paidCents int64) (int64, error) {
	if !booking.Status.IsActive() {
		return 0, apperrors.Conflict("Booking is " + string(booking.Status) + " and cannot take payments")
	}

	balance := booking.TotalCents - paidCents
	if balance <= 0 {
		return 0, apperrors.Conflict("Booking is already paid in full")
	}

	switch paymentType {
	case model.PaymentTypeDeposit:
		if booking.Status != model.StatusPendingDeposit {
			return 0, apperrors.Conflict("Deposit has already been settled for this booking")
		}
		return money.Min(booking.DepositCents, balance), nil
	default:
		return balance, nil
	}
}

func findBooking(ctx context.Context, bookings BookingStore, id string, cfg *config.Config) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := bookings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		cfg.Log.Error("Failed to retrieve booking", "booking_id", id, "error", err)
		return nil, mongotx.ClassifyError("Failed to retrieve booking", err)
	}
	return booking, nil
}

func publish(ctx context.Context, publisher events.Publisher, cfg *config.Config, evts []*events.Event) {
	if len(evts) == 0 {
		return
	}
	if err := publisher.Publish(context.WithoutCancel(ctx), evts...); err != nil {
		cfg.Log.Warn("Failed to publish payment events", "error", err)
	}
}
