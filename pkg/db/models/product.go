package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultLowStockThreshold flags a product as running low at or below this count.
const DefaultLowStockThreshold = 10

// Product is a catalog entry sold at the register.
type Product struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name              string          `gorm:"column:name;not null"`
	Category          string          `gorm:"column:category;not null;index"`
	UnitPrice         decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	StockQuantity     int             `gorm:"column:stock_quantity;not null;default:0"`
	LowStockThreshold int             `gorm:"column:low_stock_threshold;not null;default:10"`
	IsActive          bool            `gorm:"column:is_active;not null"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// IsLowStock reports whether the advisory stock count is at or under the threshold.
func (p Product) IsLowStock() bool {
	threshold := p.LowStockThreshold
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return p.StockQuantity <= threshold
}
