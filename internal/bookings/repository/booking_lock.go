package repository

import (
	"context"
	"fmt"
	"time"

	bookingserrors "detailbook/internal/bookings/errors"
	"detailbook/pkg/config"
	mongotx "detailbook/pkg/db/mongo"
	"detailbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	LockCollectionName = "Booking_locks"
)

// BookingLockRepository stores date-scoped reservation locks. The unique _id
// makes Create the acquisition point.
type BookingLockRepository interface {
	// Create fails with ErrLockHeld when a lock with the same id exists.
	Create(ctx context.Context, lock *model.BookingLock) error
	// DeleteExpired removes the lock only if it expired by the store's clock.
	DeleteExpired(ctx context.Context, lockID string) (bool, error)
	// Release removes the lock only if owner still holds it.
	Release(ctx context.Context, lockID, owner string) error
}

type mongoBookingLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingLockRepository(cfg *config.Config) BookingLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

func (r *mongoBookingLockRepository) Create(ctx context.Context, lock *model.BookingLock) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	lock.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingserrors.ErrLockHeld
		}
		return fmt.Errorf("failed to create booking lock: %w", err)
	}
	return nil
}

func (r *mongoBookingLockRepository) DeleteExpired(ctx context.Context, lockID string) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	// $$NOW keeps app clock skew out of reclamation.
	filter := bson.M{
		"_id":   lockID,
		"$expr": bson.M{"$lt": bson.A{"$expires_at", "$$NOW"}},
	}
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to delete expired booking lock: %w", err)
	}
	return result.DeletedCount > 0, nil
}

func (r *mongoBookingLockRepository) Release(ctx context.Context, lockID, owner string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "owner": owner}); err != nil {
		return fmt.Errorf("failed to release booking lock: %w", err)
	}
	return nil
}
