package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleLine captures one product of a committed sale, priced as it was at checkout.
type SaleLine struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SaleID          uuid.UUID       `gorm:"column:sale_id;type:uuid;not null;index"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Quantity        int             `gorm:"column:quantity;not null"`
	UnitPrice       decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2);not null"`
	LineTotal       decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}
