package service

import (
	"context"

	"detailbook/internal/calendar/repository"
	"detailbook/pkg/config"
	mongotx "detailbook/pkg/db/mongo"
	apperrors "detailbook/pkg/errors"
	"detailbook/pkg/model"
)

// Policy answers whether the business is open on a date and when.
type Policy interface {
	IsOpen(ctx context.Context, date string) (*model.DayStatus, error)
}

type calendarPolicy struct {
	repo repository.CalendarRepository
	cfg  *config.Config
}

func NewCalendarPolicy(repo repository.CalendarRepository, cfg *config.Config) Policy {
	return &calendarPolicy{repo: repo, cfg: cfg}
}

// IsOpen checks, in order, an exact blocked-date match, the weekday entry and
// its closed flag. A weekday without an entry is closed.
func (p *calendarPolicy) IsOpen(ctx context.Context, date string) (*model.DayStatus, error) {
	day, err := model.ParseDate(date)
	if err != nil {
		return nil, apperrors.Validation("Invalid date", map[string]any{"date": err.Error()})
	}

	blocked, err := p.repo.FindBlockedDate(ctx, date)
	if err != nil {
		p.cfg.Log.Error("Failed to load blocked date", "date", date, "error", err)
		return nil, mongotx.ClassifyError("Failed to load business calendar", err)
	}
	if blocked != nil {
		return &model.DayStatus{Date: date, Reason: model.ReasonBlocked, Note: blocked.Reason}, nil
	}

	hours, err := p.repo.FindHours(ctx, int(day.Weekday()))
	if err != nil {
		p.cfg.Log.Error("Failed to load business hours", "date", date, "error", err)
		return nil, mongotx.ClassifyError("Failed to load business calendar", err)
	}
	if hours == nil || hours.Closed {
		return &model.DayStatus{Date: date, Reason: model.ReasonClosed}, nil
	}

	openMin, openErr := model.ParseTimeOfDay(hours.OpenTime)
	closeMin, closeErr := model.ParseTimeOfDay(hours.CloseTime)
	if openErr != nil || closeErr != nil || closeMin <= openMin {
		p.cfg.Log.Warn("Ignoring malformed business hours entry",
			"weekday", hours.Weekday,
			"open_time", hours.OpenTime,
			"close_time", hours.CloseTime,
		)
		return &model.DayStatus{Date: date, Reason: model.ReasonClosed}, nil
	}

	return &model.DayStatus{
		Date:   date,
		Open:   true,
		Window: &model.DayWindow{OpenMinute: openMin, CloseMinute: closeMin},
	}, nil
}
