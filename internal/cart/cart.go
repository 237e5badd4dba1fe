package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/venuepos/internal/pricing"
	"github.com/angelmondragon/venuepos/pkg/db/models"
)

// Line is one product in the cart. LineTotal is recomputed on every mutation.
type Line struct {
	Product         models.Product  `json:"product"`
	Quantity        int             `json:"quantity"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

// Cart is an immutable snapshot of a register's cart.
type Cart struct {
	Lines  []Line         `json:"lines"`
	Member *models.Member `json:"member,omitempty"`
	Totals pricing.Totals `json:"totals"`
}

// IsEmpty reports whether the snapshot has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// ItemCount sums the quantities of every line.
func (c Cart) ItemCount() int {
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

// Line returns the line for productID, if present.
func (c Cart) Line(productID uuid.UUID) (Line, bool) {
	for _, line := range c.Lines {
		if line.Product.ID == productID {
			return line, true
		}
	}
	return Line{}, false
}

// PricingLines converts the snapshot into the pricing engine's input.
func (c Cart) PricingLines() []pricing.Line {
	lines := make([]pricing.Line, 0, len(c.Lines))
	for _, line := range c.Lines {
		lines = append(lines, pricing.Line{
			UnitPrice:       line.Product.UnitPrice,
			Quantity:        line.Quantity,
			DiscountPercent: line.DiscountPercent,
		})
	}
	return lines
}
