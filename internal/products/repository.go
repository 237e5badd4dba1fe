package products

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/venuepos/internal/repo"
	"github.com/angelmondragon/venuepos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/venuepos/pkg/errors"
	"gorm.io/gorm"
)

// maxDecrementAttempts bounds the compare-and-set loop; each lost round means
// another writer committed in between.
const maxDecrementAttempts = 64

// ErrStockContention is returned when a decrement keeps losing its race.
var ErrStockContention = errors.New("stock decrement contention")

// StockChange reports the stock level a decrement observed and wrote.
type StockChange struct {
	ProductID uuid.UUID
	Previous  int
	New       int
	Retries   int
}

// Repository persists catalog rows.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn)}
}

// Create inserts a product, assigning an ID when missing.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if err := r.DB(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// FindByID loads a single product.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListActive returns active products ordered by category then name. An empty
// category lists every category.
func (r *Repository) ListActive(ctx context.Context, category string) ([]models.Product, error) {
	query := r.DB(ctx).Model(&models.Product{}).Where("is_active = ?", true)
	if category = strings.TrimSpace(category); category != "" {
		query = query.Where("LOWER(category) = ?", strings.ToLower(category))
	}
	var rows []models.Product
	if err := query.Order("category ASC").Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DecrementStock lowers a product's stock by quantity, floored at zero. The
// write only lands if the row still holds the value that was read, so two
// concurrent decrements can never both consume the same unit.
func (r *Repository) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) (StockChange, error) {
	change := StockChange{ProductID: productID}
	if quantity <= 0 {
		return change, pkgerrors.New(pkgerrors.CodeValidation, "decrement quantity must be positive")
	}

	for attempt := 0; attempt < maxDecrementAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return change, err
		}

		var current models.Product
		if err := r.DB(ctx).Select("id", "stock_quantity").First(&current, "id = ?", productID).Error; err != nil {
			return change, err
		}

		next := max(current.StockQuantity-quantity, 0)
		res := r.DB(ctx).
			Model(&models.Product{}).
			Where("id = ? AND stock_quantity = ?", productID, current.StockQuantity).
			Updates(map[string]any{
				"stock_quantity": next,
				"updated_at":     time.Now().UTC(),
			})
		if res.Error != nil {
			return change, res.Error
		}
		if res.RowsAffected == 1 {
			change.Previous = current.StockQuantity
			change.New = next
			return change, nil
		}
		change.Retries++
	}
	return change, fmt.Errorf("%w: product %s after %d attempts", ErrStockContention, productID, maxDecrementAttempts)
}
