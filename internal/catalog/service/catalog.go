package service

import (
	"context"
	"errors"
	"strconv"

	catalogerrors "detailbook/internal/catalog/errors"
	"detailbook/internal/catalog/repository"
	"detailbook/pkg/config"
	mongotx "detailbook/pkg/db/mongo"
	apperrors "detailbook/pkg/errors"
	"detailbook/pkg/model"
)

// Catalog resolves variants for pricing and scheduling. Durations follow the
// order variant, service default, configured default.
type Catalog interface {
	ResolveVariant(ctx context.Context, variantID int64) (*model.ResolvedVariant, error)
	DurationFor(ctx context.Context, variantID *int64) (int, error)
}

type catalogService struct {
	repo repository.CatalogRepository
	cfg  *config.Config
}

func NewCatalogService(repo repository.CatalogRepository, cfg *config.Config) Catalog {
	return &catalogService{repo: repo, cfg: cfg}
}

func (s *catalogService) ResolveVariant(ctx context.Context, variantID int64) (*model.ResolvedVariant, error) {
	service, err := s.repo.FindServiceByVariant(ctx, variantID)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrVariantNotFound) {
			return nil, apperrors.NotFoundWithID("Service variant", strconv.FormatInt(variantID, 10))
		}
		s.cfg.Log.Error("Failed to look up service variant", "variant_id", variantID, "error", err)
		return nil, mongotx.ClassifyError("Failed to look up service variant", err)
	}

	resolved, ok := service.Resolve(variantID, s.cfg.DefaultDurationMin)
	if !ok {
		return nil, apperrors.NotFoundWithID("Service variant", strconv.FormatInt(variantID, 10))
	}
	return resolved, nil
}

// DurationFor returns the configured default when no variant is given.
func (s *catalogService) DurationFor(ctx context.Context, variantID *int64) (int, error) {
	if variantID == nil {
		return s.cfg.DefaultDurationMin, nil
	}
	resolved, err := s.ResolveVariant(ctx, *variantID)
	if err != nil {
		return 0, err
	}
	return resolved.DurationMin, nil
}
