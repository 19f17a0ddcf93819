package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	customerserrors "detailbook/internal/customers/errors"
	"detailbook/pkg/config"
	mongotx "detailbook/pkg/db/mongo"
	"detailbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Customers"
)

type CustomerRepository interface {
	// UpsertByEmail creates the customer or overwrites phone and name on the
	// existing record with the same email. The stored record is returned.
	UpsertByEmail(ctx context.Context, customer *model.Customer) (*model.Customer, error)
	FindByID(ctx context.Context, id string) (*model.Customer, error)
}

type mongoCustomerRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoCustomerRepository(cfg *config.Config) CustomerRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCustomerRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoCustomerRepository) UpsertByEmail(ctx context.Context, customer *model.Customer) (*model.Customer, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	filter := bson.M{"email": customer.Email}
	update := bson.M{
		"$set": bson.M{
			"phone":      customer.Phone,
			"first_name": customer.FirstName,
			"last_name":  customer.LastName,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored model.Customer
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return nil, fmt.Errorf("failed to upsert customer: %w", err)
	}
	return &stored, nil
}

func (r *mongoCustomerRepository) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", customerserrors.ErrInvalidID, id)
	}

	var customer model.Customer
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&customer); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, customerserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	return &customer, nil
}
