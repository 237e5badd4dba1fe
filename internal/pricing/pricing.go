package pricing

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/venuepos/pkg/errors"
)

// DefaultTaxRate applies when no rate is configured.
var DefaultTaxRate = decimal.RequireFromString("0.10")

var (
	ErrInvalidQuantity = pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	ErrInvalidDiscount = pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 0 and 100")
)

var (
	hundred       = decimal.NewFromInt(100)
	moneyPlaces   = int32(2)
	percentPlaces = int32(2)
)

// Line is the pricing view of a cart or sale line.
type Line struct {
	UnitPrice       decimal.Decimal
	Quantity        int
	DiscountPercent decimal.Decimal
}

// Totals is the rounded money summary of a set of lines.
// Discount is informational: list value minus Subtotal.
type Totals struct {
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Tax        decimal.Decimal
	GrandTotal decimal.Decimal
}

// Round2 rounds half away from zero to cents.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(moneyPlaces)
}

// LineTotal prices quantity units at unitPrice less discountPercent, rounded to cents.
func LineTotal(unitPrice decimal.Decimal, quantity int, discountPercent decimal.Decimal) (decimal.Decimal, error) {
	if quantity <= 0 {
		return decimal.Zero, ErrInvalidQuantity
	}
	if discountPercent.IsNegative() || discountPercent.GreaterThan(hundred) {
		return decimal.Zero, ErrInvalidDiscount
	}
	gross := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	net := gross.Mul(hundred.Sub(discountPercent)).Div(hundred)
	return Round2(net), nil
}

// RoundPercent rounds a discount percent to the two places a sale line stores.
func RoundPercent(pct decimal.Decimal) decimal.Decimal {
	return pct.Round(percentPlaces)
}

// ClampDiscount rounds a requested discount percent to two places and bounds
// it to [0, 100].
func ClampDiscount(pct decimal.Decimal) decimal.Decimal {
	pct = RoundPercent(pct)
	if pct.IsNegative() {
		return decimal.Zero
	}
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}

// Engine computes totals at a fixed tax rate. The zero value is unconfigured;
// build one with NewEngine.
type Engine struct {
	taxRate    decimal.Decimal
	configured bool
}

// NewEngine builds an Engine. A negative rate falls back to DefaultTaxRate.
func NewEngine(taxRate decimal.Decimal) Engine {
	if taxRate.IsNegative() {
		taxRate = DefaultTaxRate
	}
	return Engine{taxRate: taxRate, configured: true}
}

// IsZero reports whether e was never built by NewEngine.
func (e Engine) IsZero() bool {
	return !e.configured
}

// TaxRate returns the rate the engine applies.
func (e Engine) TaxRate() decimal.Decimal {
	return e.taxRate
}

// Totals rounds every line before summing, then rounds tax and grand total.
func (e Engine) Totals(lines []Line) (Totals, error) {
	subtotal := decimal.Zero
	listValue := decimal.Zero
	for _, line := range lines {
		total, err := LineTotal(line.UnitPrice, line.Quantity, line.DiscountPercent)
		if err != nil {
			return Totals{}, err
		}
		subtotal = subtotal.Add(total)
		listValue = listValue.Add(Round2(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))))
	}
	subtotal = Round2(subtotal)
	tax := Round2(subtotal.Mul(e.taxRate))
	return Totals{
		Subtotal:   subtotal,
		Discount:   listValue.Sub(subtotal),
		Tax:        tax,
		GrandTotal: Round2(subtotal.Add(tax)),
	}, nil
}
