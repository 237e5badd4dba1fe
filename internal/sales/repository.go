package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venuepos/internal/repo"
	"github.com/angelmondragon/venuepos/pkg/db/models"
	"github.com/angelmondragon/venuepos/pkg/enums"
)

// Repository persists sales and their lines. Each call is its own write; the
// record store offers no cross-row transaction to the checkout.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn)}
}

// CreateSale inserts the sale header without its lines.
func (r *Repository) CreateSale(ctx context.Context, sale *models.Sale) error {
	return r.DB(ctx).Omit("Lines").Create(sale).Error
}

// CreateSaleLine inserts one line of a sale.
func (r *Repository) CreateSaleLine(ctx context.Context, line *models.SaleLine) error {
	return r.DB(ctx).Create(line).Error
}

// UpdatePaymentStatus moves a sale to status.
func (r *Repository) UpdatePaymentStatus(ctx context.Context, saleID uuid.UUID, status enums.PaymentStatus) error {
	res := r.DB(ctx).
		Model(&models.Sale{}).
		Where("id = ?", saleID).
		Updates(map[string]any{
			"payment_status": status,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindByNumber loads a sale with its lines.
func (r *Repository) FindByNumber(ctx context.Context, saleNumber string) (*models.Sale, error) {
	var sale models.Sale
	err := r.DB(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&sale, "sale_number = ?", saleNumber).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}
