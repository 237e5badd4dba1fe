package products

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/venuepos/pkg/db"
	"github.com/angelmondragon/venuepos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/venuepos/pkg/errors"
)

type catalogRepository interface {
	ListActive(ctx context.Context, category string) ([]models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes the read side of the catalog to registers.
type Service interface {
	List(ctx context.Context, category string) ([]ProductDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo              catalogRepository
	lowStockThreshold int
}

// NewService builds the catalog service.
func NewService(repo catalogRepository, lowStockThreshold int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if lowStockThreshold <= 0 {
		lowStockThreshold = models.DefaultLowStockThreshold
	}
	return &service{repo: repo, lowStockThreshold: lowStockThreshold}, nil
}

func (s *service) List(ctx context.Context, category string) ([]ProductDTO, error) {
	rows, err := s.repo.ListActive(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	items := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, NewProductDTO(row, s.lowStockThreshold))
	}
	return items, nil
}

// Get returns an active product; inactive rows read as not found.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}
