package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"detailbook/internal/migrations/mongo/validators"
	"detailbook/pkg/logger"
)

var (
	CustomersIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_email"),
		},
	}

	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "appointment_date", Value: 1},
			{Key: "status", Value: 1},
			{Key: "start_minute", Value: 1},
		}},
		{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	PaymentsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "intent_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_intent_id"),
		},
		{Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "status", Value: 1}}},
	}

	// Expired locks are removed by Mongo itself; acquisition also reclaims
	// them eagerly since the TTL monitor only runs once a minute.
	BookingLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expires_at"),
		},
	}

	ServicesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "variants.id", Value: 1}, {Key: "active", Value: 1}}},
	}
)

type CollectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// Collections lists every collection the services read or write.
func Collections() map[string]CollectionDef {
	return map[string]CollectionDef{
		"Services":       {Indexes: ServicesIndexes, Validator: validators.ServiceValidator},
		"Business_hours": {Validator: validators.BusinessHoursValidator},
		"Blocked_dates":  {Validator: validators.BlockedDateValidator},
		"Customers":      {Indexes: CustomersIndexes, Validator: validators.CustomerValidator},
		"Bookings":       {Indexes: BookingsIndexes, Validator: validators.BookingValidator},
		"Payments":       {Indexes: PaymentsIndexes, Validator: validators.PaymentValidator},
		"Booking_locks":  {Indexes: BookingLocksIndexes, Validator: validators.BookingLockValidator},
	}
}

func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	start := time.Now()
	log.Info("Running Mongo migrations", "database", db.Name())

	for name, def := range Collections() {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied", "duration", time.Since(start))
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
