package products

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/venuepos/pkg/db/models"
)

// ProductDTO is the catalog entry shown on the register.
type ProductDTO struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	StockQuantity int             `json:"stock_quantity"`
	LowStock      bool            `json:"low_stock"`
}

// NewProductDTO maps a product row, flagging it when stock is at or below
// its own threshold or fallbackThreshold when the row has none.
func NewProductDTO(product models.Product, fallbackThreshold int) ProductDTO {
	threshold := product.LowStockThreshold
	if threshold <= 0 {
		threshold = fallbackThreshold
	}
	return ProductDTO{
		ID:            product.ID,
		Name:          product.Name,
		Category:      product.Category,
		UnitPrice:     product.UnitPrice,
		StockQuantity: product.StockQuantity,
		LowStock:      product.StockQuantity <= threshold,
	}
}
