package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/venuepos/pkg/enums"
)

// Sale is the durable record of a checkout. It is written once as pending and
// then flipped to completed (or failed); amounts never change afterwards.
type Sale struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SaleNumber     string              `gorm:"column:sale_number;not null;uniqueIndex"`
	OperatorID     string              `gorm:"column:operator_id;not null"`
	MemberID       *uuid.UUID          `gorm:"column:member_id;type:uuid"`
	Subtotal       decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	TaxAmount      decimal.Decimal     `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	DiscountAmount decimal.Decimal     `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	GrandTotal     decimal.Decimal     `gorm:"column:grand_total;type:numeric(12,2);not null"`
	PaymentMethod  enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	PaymentStatus  enums.PaymentStatus `gorm:"column:payment_status;type:text;not null"`
	BusinessDate   time.Time           `gorm:"column:business_date;type:date;not null"`
	Lines          []SaleLine          `gorm:"foreignKey:SaleID"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
