package service

import (
	"context"

	calendarservice "detailbook/internal/calendar/service"
	catalogservice "detailbook/internal/catalog/service"
	"detailbook/pkg/config"
	mongotx "detailbook/pkg/db/mongo"
	apperrors "detailbook/pkg/errors"
	"detailbook/pkg/model"
)

// ActiveBookingFinder lists bookings on a date whose status still holds time.
type ActiveBookingFinder interface {
	FindActiveByDate(ctx context.Context, date string) ([]*model.Booking, error)
}

type SlotCalculator interface {
	Compute(ctx context.Context, date string, variantID *int64) (*model.Availability, error)
}

type slotCalculator struct {
	policy   calendarservice.Policy
	catalog  catalogservice.Catalog
	bookings ActiveBookingFinder
	cfg      *config.Config
}

func NewSlotCalculator(
	policy calendarservice.Policy,
	catalog catalogservice.Catalog,
	bookings ActiveBookingFinder,
	cfg *config.Config,
) SlotCalculator {
	return &slotCalculator{
		policy:   policy,
		catalog:  catalog,
		bookings: bookings,
		cfg:      cfg,
	}
}

func (s *slotCalculator) Compute(ctx context.Context, date string, variantID *int64) (*model.Availability, error) {
	day, err := s.policy.IsOpen(ctx, date)
	if err != nil {
		return nil, err
	}

	duration, err := s.catalog.DurationFor(ctx, variantID)
	if err != nil {
		return nil, err
	}

	result := &model.Availability{
		Date:        date,
		Available:   day.Open,
		Reason:      day.Reason,
		DurationMin: duration,
		Slots:       []model.Slot{},
	}
	if !day.Open {
		return result, nil
	}

	busy, err := s.bookings.FindActiveByDate(ctx, date)
	if err != nil {
		s.cfg.Log.Error("Failed to load bookings for availability", "date", date, "error", err)
		return nil, mongotx.ClassifyError("Failed to load bookings", err)
	}

	for _, start := range ComputeSlots(*day.Window, duration, s.cfg.SlotStepMin, busy) {
		result.Slots = append(result.Slots, model.NewSlot(start))
	}
	return result, nil
}

// ComputeSlots enumerates start minutes from open to close-duration inclusive
// at the given step, dropping candidates that overlap a busy booking.
func ComputeSlots(window model.DayWindow, duration, step int, busy []*model.Booking) []int {
	if duration <= 0 || step <= 0 {
		return nil
	}

	var starts []int
	for start := window.OpenMinute; start+duration <= window.CloseMinute; start += step {
		if !overlapsAny(start, start+duration, busy) {
			starts = append(starts, start)
		}
	}
	return starts
}

func overlapsAny(start, end int, busy []*model.Booking) bool {
	for _, b := range busy {
		if b.Status.IsActive() && b.Overlaps(start, end) {
			return true
		}
	}
	return false
}

// CheckSlot reports why a window cannot be booked on an open day, or nil.
func CheckSlot(window model.DayWindow, start, duration, step int, busy []*model.Booking) error {
	end := start + duration
	if !window.Contains(start, end) {
		return apperrors.Validation("Requested time is outside business hours", map[string]any{
			"appointment_time": "must start at or after " + model.FormatTimeOfDay(window.OpenMinute) +
				" and end by " + model.FormatTimeOfDay(window.CloseMinute),
		})
	}
	if step > 0 && (start-window.OpenMinute)%step != 0 {
		return apperrors.Validation("Requested time is not on the booking grid", map[string]any{
			"appointment_time": "must align to the booking interval",
		})
	}
	if overlapsAny(start, end, busy) {
		return apperrors.Conflict("The requested time slot is no longer available, please check availability again")
	}
	return nil
}
