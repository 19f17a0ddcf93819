package service

import (
	"context"
	"errors"
	"sync"
	"time"

	bookingserrors "detailbook/internal/bookings/errors"
	"detailbook/internal/bookings/repository"
	"detailbook/internal/bookings/validator"
	calendarservice "detailbook/internal/calendar/service"
	catalogservice "detailbook/internal/catalog/service"
	customersrepo "detailbook/internal/customers/repository"
	"detailbook/internal/events"
	"detailbook/pkg/config"
	mongotx "detailbook/pkg/db/mongo"
	apperrors "detailbook/pkg/errors"
	"detailbook/pkg/model"
)

type BookingService interface {
	// Reserve turns a slot request into a pending_deposit booking, upserting
	// the customer in the same transaction.
	Reserve(ctx context.Context, req *model.ReservationRequest) (*model.ReservationResult, error)
	GetByID(ctx context.Context, id string) (*model.BookingView, error)
	ListByDate(ctx context.Context, date string, limit int, offset int64) ([]*model.Booking, int64, error)
	// ChangeStatus applies a staff-driven transition.
	ChangeStatus(ctx context.Context, id string, req *model.StatusChangeRequest) (*model.BookingView, error)
}

// PaymentLister reads a booking's ledger rows.
type PaymentLister interface {
	ListByBooking(ctx context.Context, bookingID string) ([]*model.Payment, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.BookingLockRepository
	customers customersrepo.CustomerRepository
	catalog   catalogservice.Catalog
	policy    calendarservice.Policy
	payments  PaymentLister
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	customers customersrepo.CustomerRepository,
	catalog catalogservice.Catalog,
	policy calendarservice.Policy,
	payments PaymentLister,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		customers: customers,
		catalog:   catalog,
		policy:    policy,
		payments:  payments,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.BookingView, error) {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	payments, err := s.payments.ListByBooking(ctx, id)
	if err != nil {
		s.cfg.Log.Error("Failed to load booking payments", "booking_id", id, "error", err)
		return nil, mongotx.ClassifyError("Failed to retrieve booking payments", err)
	}

	return model.NewBookingView(booking, payments), nil
}

func (s *bookingService) ListByDate(ctx context.Context, date string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if _, err := model.ParseDate(date); err != nil {
		return nil, 0, apperrors.Validation("Invalid date", map[string]any{"date": err.Error()})
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountByDate(ctx, date)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings", "date", date, "error", err)
			errCount = mongotx.ClassifyError("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.FindByDate(ctx, date, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list bookings",
				"date", date,
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = mongotx.ClassifyError("Failed to retrieve bookings", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) ChangeStatus(ctx context.Context, id string, req *model.StatusChangeRequest) (*model.BookingView, error) {
	target, err := s.validator.ValidateStatusChange(req)
	if err != nil {
		return nil, validationError("Invalid status change", err)
	}

	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	from := booking.Status
	if !from.CanTransition(target, model.TriggerStaff) {
		s.cfg.Log.Warn("Rejected booking status change",
			"booking_id", id,
			"from", from,
			"to", target,
		)
		return nil, apperrors.Conflict("Booking cannot move from " + string(from) + " to " + string(target)).
			WithDetails(map[string]any{"status": from, "allowed": from.StaffTargets()})
	}

	if err := s.repo.UpdateStatus(ctx, id, from, target, time.Now()); err != nil {
		if errors.Is(err, bookingserrors.ErrStatusChanged) {
			return nil, apperrors.Conflict("Booking status changed concurrently, reload and retry")
		}
		s.cfg.Log.Error("Failed to update booking status", "booking_id", id, "to", target, "error", err)
		return nil, mongotx.ClassifyError("Failed to update booking status", err)
	}

	s.cfg.Log.Info("Booking status changed",
		"booking_id", id,
		"from", from,
		"to", target,
	)
	s.publish(ctx, events.ForTransition(id, from, target))

	return s.GetByID(ctx, id)
}

func (s *bookingService) findBooking(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		s.cfg.Log.Error("Failed to retrieve booking", "booking_id", id, "error", err)
		return nil, mongotx.ClassifyError("Failed to retrieve booking", err)
	}
	return booking, nil
}

// publish runs after commit. Delivery failures are logged and never undo
// the committed change.
func (s *bookingService) publish(ctx context.Context, evts ...*events.Event) {
	if err := s.publisher.Publish(context.WithoutCancel(ctx), evts...); err != nil {
		s.cfg.Log.Warn("Failed to publish booking events", "error", err)
	}
}

func validationError(message string, err error) error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		return apperrors.Validation(message, errs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
