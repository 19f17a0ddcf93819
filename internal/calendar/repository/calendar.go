package repository

import (
	"context"
	"errors"
	"fmt"

	"detailbook/pkg/config"
	mongotx "detailbook/pkg/db/mongo"
	"detailbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	BusinessHoursCollection = "Business_hours"
	BlockedDatesCollection  = "Blocked_dates"
)

// CalendarRepository reads the business calendar. Both lookups return
// (nil, nil) when no entry exists, since absence is a valid policy answer.
type CalendarRepository interface {
	FindHours(ctx context.Context, weekday int) (*model.BusinessHours, error)
	FindBlockedDate(ctx context.Context, date string) (*model.BlockedDate, error)
}

type mongoCalendarRepository struct {
	cfg     *config.Config
	hours   *mongo.Collection
	blocked *mongo.Collection
}

func NewMongoCalendarRepository(cfg *config.Config) CalendarRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCalendarRepository{
		cfg:     cfg,
		hours:   db.Collection(BusinessHoursCollection),
		blocked: db.Collection(BlockedDatesCollection),
	}
}

func (r *mongoCalendarRepository) FindHours(ctx context.Context, weekday int) (*model.BusinessHours, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var hours model.BusinessHours
	if err := r.hours.FindOne(ctx, bson.M{"_id": weekday}).Decode(&hours); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find business hours: %w", err)
	}
	return &hours, nil
}

func (r *mongoCalendarRepository) FindBlockedDate(ctx context.Context, date string) (*model.BlockedDate, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var blocked model.BlockedDate
	if err := r.blocked.FindOne(ctx, bson.M{"_id": date}).Decode(&blocked); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find blocked date: %w", err)
	}
	return &blocked, nil
}
