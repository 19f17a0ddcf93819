package service

import (
	"context"
	"errors"
	"time"

	availability "detailbook/internal/availability/service"
	bookingserrors "detailbook/internal/bookings/errors"
	"detailbook/internal/events"
	mongotx "detailbook/pkg/db/mongo"
	apperrors "detailbook/pkg/errors"
	"detailbook/pkg/model"
	"detailbook/pkg/money"

	"github.com/google/uuid"
)

const (
	lockWaitTimeout   = 2 * time.Second
	lockRetryInterval = 50 * time.Millisecond
	releaseTimeout    = 2 * time.Second

	maxLockExpiryMargin = 5 * time.Second
)

func (s *bookingService) Reserve(ctx context.Context, req *model.ReservationRequest) (*model.ReservationResult, error) {
	reservation, err := s.validator.ValidateReservation(req)
	if err != nil {
		s.cfg.Log.Warn("Reservation validation failed", "error", err)
		return nil, validationError("Invalid reservation request", err)
	}

	variant, err := s.catalog.ResolveVariant(ctx, reservation.VariantID)
	if err != nil {
		return nil, err
	}

	day, err := s.policy.IsOpen(ctx, reservation.Date)
	if err != nil {
		return nil, err
	}
	if !day.Open {
		return nil, apperrors.Validation("The business is closed on the requested date", map[string]any{
			"appointment_date": "closed (" + string(day.Reason) + ")",
		})
	}
	if err := availability.CheckSlot(*day.Window, reservation.StartMinute, variant.DurationMin, s.cfg.SlotStepMin, nil); err != nil {
		return nil, err
	}

	lock, release, err := s.acquireDateLock(ctx, reservation.Date)
	if err != nil {
		return nil, err
	}
	defer release()

	// The deposit is the configured flat amount, not a share of the price. A
	// variant cheaper than that amount is collected in full.
	deposit := money.Min(s.cfg.DepositCents, variant.PriceCents)

	booking := &model.Booking{
		ServiceID:       variant.ServiceID,
		VariantID:       variant.VariantID,
		Vehicle:         reservation.Vehicle,
		AppointmentDate: reservation.Date,
		AppointmentTime: model.FormatTimeOfDay(reservation.StartMinute),
		StartMinute:     reservation.StartMinute,
		EndMinute:       reservation.StartMinute + variant.DurationMin,
		DurationMin:     variant.DurationMin,
		Status:          model.StatusPendingDeposit,
		DepositCents:    deposit,
		TotalCents:      variant.PriceCents,
		Notes:           reservation.Notes,
	}

	// The transaction must finish before anyone can reclaim the lock.
	txCtx, cancel := context.WithDeadline(ctx, lock.ExpiresAt.Add(-lockExpiryMargin(s.cfg.BookingLockTTL)))
	defer cancel()

	err = s.repo.ExecuteTransaction(txCtx, func(ctx context.Context) error {
		busy, err := s.repo.FindActiveByDate(ctx, booking.AppointmentDate)
		if err != nil {
			return mongotx.ClassifyError("Failed to check existing bookings", err)
		}
		if err := availability.CheckSlot(*day.Window, booking.StartMinute, booking.DurationMin, s.cfg.SlotStepMin, busy); err != nil {
			return err
		}

		customer, err := s.customers.UpsertByEmail(ctx, &model.Customer{
			Email:     reservation.Email,
			Phone:     reservation.Phone,
			FirstName: reservation.FirstName,
			LastName:  reservation.LastName,
		})
		if err != nil {
			return mongotx.ClassifyError("Failed to save customer", err)
		}

		booking.ID = ""
		booking.CustomerID = customer.ID
		if err := s.repo.Create(ctx, booking); err != nil {
			return mongotx.ClassifyError("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeConflict) {
			s.cfg.Log.Info("Reservation conflicts with an existing booking",
				"date", booking.AppointmentDate,
				"time", booking.AppointmentTime,
			)
		} else {
			s.cfg.Log.Error("Failed to reserve booking",
				"date", booking.AppointmentDate,
				"time", booking.AppointmentTime,
				"variant_id", booking.VariantID,
				"error", err,
			)
		}
		return nil, err
	}

	s.cfg.Log.Info("Booking reserved",
		"booking_id", booking.ID,
		"customer_id", booking.CustomerID,
		"date", booking.AppointmentDate,
		"time", booking.AppointmentTime,
		"duration_min", booking.DurationMin,
		"total", money.Format(booking.TotalCents),
	)

	created := events.New(events.BookingCreated, booking.ID)
	created.Status = booking.Status
	created.AmountCents = booking.TotalCents
	s.publish(ctx, created)

	return &model.ReservationResult{
		Booking:         model.NewBookingView(booking, nil),
		DepositRequired: money.Number(booking.DepositCents),
	}, nil
}

// acquireDateLock serializes reservations for one date. A held lock is waited
// on briefly, and one whose expiry passed is reclaimed from its dead holder.
func (s *bookingService) acquireDateLock(ctx context.Context, date string) (*model.BookingLock, func(), error) {
	lockID := model.DateLockID(date)
	owner := uuid.New().String()
	deadline := time.Now().Add(lockWaitTimeout)

	for {
		now := time.Now()
		lock := &model.BookingLock{
			ID:        lockID,
			Owner:     owner,
			ExpiresAt: now.Add(s.cfg.BookingLockTTL),
		}

		err := s.lockRepo.Create(ctx, lock)
		if err == nil {
			return lock, s.releaseFunc(ctx, lockID, owner), nil
		}
		if !errors.Is(err, bookingserrors.ErrLockHeld) {
			s.cfg.Log.Error("Failed to acquire booking lock", "lock_id", lockID, "error", err)
			return nil, nil, mongotx.ClassifyError("Failed to acquire booking lock", err)
		}

		reclaimed, err := s.lockRepo.DeleteExpired(ctx, lockID)
		if err != nil {
			s.cfg.Log.Error("Failed to reclaim booking lock", "lock_id", lockID, "error", err)
			return nil, nil, mongotx.ClassifyError("Failed to acquire booking lock", err)
		}
		if reclaimed {
			s.cfg.Log.Warn("Reclaimed expired booking lock", "lock_id", lockID)
			continue
		}

		if now.After(deadline) {
			return nil, nil, apperrors.Conflict("Another reservation for this date is in progress, please check availability and try again")
		}
		select {
		case <-ctx.Done():
			return nil, nil, apperrors.Timeout("Reservation timed out waiting for the booking calendar")
		case <-time.After(lockRetryInterval):
		}
	}
}

// lockExpiryMargin is the slack between the transaction deadline and lock
// expiry, covering commit latency and clock drift against the store.
func lockExpiryMargin(ttl time.Duration) time.Duration {
	margin := ttl / 4
	if margin > maxLockExpiryMargin {
		margin = maxLockExpiryMargin
	}
	return margin
}

func (s *bookingService) releaseFunc(ctx context.Context, lockID, owner string) func() {
	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := s.lockRepo.Release(releaseCtx, lockID, owner); err != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "error", err)
		}
	}
}
