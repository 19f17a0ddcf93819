package repository

import (
	"context"
	"errors"
	"fmt"

	catalogerrors "detailbook/internal/catalog/errors"
	"detailbook/pkg/config"
	mongotx "detailbook/pkg/db/mongo"
	"detailbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	CollectionName = "Services"
)

type CatalogRepository interface {
	FindServiceByVariant(ctx context.Context, variantID int64) (*model.Service, error)
}

type mongoCatalogRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoCatalogRepository(cfg *config.Config) CatalogRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCatalogRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// FindServiceByVariant returns the active service owning the variant.
func (r *mongoCatalogRepository) FindServiceByVariant(ctx context.Context, variantID int64) (*model.Service, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"variants.id": variantID, "active": true}

	var service model.Service
	if err := r.collection.FindOne(ctx, filter).Decode(&service); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, catalogerrors.ErrVariantNotFound
		}
		return nil, fmt.Errorf("failed to find service by variant: %w", err)
	}
	return &service, nil
}
