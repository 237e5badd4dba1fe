package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/venuepos/internal/cart"
	"github.com/angelmondragon/venuepos/internal/checkout"
	"github.com/angelmondragon/venuepos/internal/products"
	"github.com/angelmondragon/venuepos/pkg/db/models"
	"github.com/angelmondragon/venuepos/pkg/enums"
)

// Amounts go out as fixed two-decimal strings so the register never sees
// float drift or a trimmed "24.5".
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type productResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	UnitPrice     string    `json:"unit_price"`
	StockQuantity int       `json:"stock_quantity"`
	LowStock      bool      `json:"low_stock"`
}

func newProductResponse(p products.ProductDTO) productResponse {
	return productResponse{
		ID:            p.ID,
		Name:          p.Name,
		Category:      p.Category,
		UnitPrice:     money(p.UnitPrice),
		StockQuantity: p.StockQuantity,
		LowStock:      p.LowStock,
	}
}

type memberResponse struct {
	ID             uuid.UUID            `json:"id"`
	MemberNumber   string               `json:"member_number"`
	FullName       string               `json:"full_name"`
	Phone          *string              `json:"phone,omitempty"`
	MembershipTier enums.MembershipTier `json:"membership_tier"`
}

func newMemberResponse(m models.Member) memberResponse {
	return memberResponse{
		ID:             m.ID,
		MemberNumber:   m.MemberNumber,
		FullName:       m.FullName,
		Phone:          m.Phone,
		MembershipTier: m.MembershipTier,
	}
}

type memberSearchResponse struct {
	Seq     uint64           `json:"seq"`
	Members []memberResponse `json:"members"`
}

type cartLineResponse struct {
	ProductID       uuid.UUID `json:"product_id"`
	Name            string    `json:"name"`
	Category        string    `json:"category"`
	UnitPrice       string    `json:"unit_price"`
	Quantity        int       `json:"quantity"`
	DiscountPercent string    `json:"discount_percent"`
	LineTotal       string    `json:"line_total"`
	LowStock        bool      `json:"low_stock"`
}

type totalsResponse struct {
	Subtotal   string `json:"subtotal"`
	Discount   string `json:"discount"`
	Tax        string `json:"tax"`
	GrandTotal string `json:"grand_total"`
}

type cartResponse struct {
	RegisterID string             `json:"register_id"`
	Lines      []cartLineResponse `json:"lines"`
	ItemCount  int                `json:"item_count"`
	Member     *memberResponse    `json:"member,omitempty"`
	Totals     totalsResponse     `json:"totals"`
}

func newCartResponse(registerID string, c cart.Cart) cartResponse {
	lines := make([]cartLineResponse, 0, len(c.Lines))
	for _, line := range c.Lines {
		lines = append(lines, cartLineResponse{
			ProductID:       line.Product.ID,
			Name:            line.Product.Name,
			Category:        line.Product.Category,
			UnitPrice:       money(line.Product.UnitPrice),
			Quantity:        line.Quantity,
			DiscountPercent: line.DiscountPercent.String(),
			LineTotal:       money(line.LineTotal),
			LowStock:        line.Product.IsLowStock(),
		})
	}
	resp := cartResponse{
		RegisterID: registerID,
		Lines:      lines,
		ItemCount:  c.ItemCount(),
		Totals: totalsResponse{
			Subtotal:   money(c.Totals.Subtotal),
			Discount:   money(c.Totals.Discount),
			Tax:        money(c.Totals.Tax),
			GrandTotal: money(c.Totals.GrandTotal),
		},
	}
	if c.Member != nil {
		m := newMemberResponse(*c.Member)
		resp.Member = &m
	}
	return resp
}

type saleLineResponse struct {
	ProductID       uuid.UUID `json:"product_id"`
	Quantity        int       `json:"quantity"`
	UnitPrice       string    `json:"unit_price"`
	DiscountPercent string    `json:"discount_percent"`
	LineTotal       string    `json:"line_total"`
}

type saleResponse struct {
	ID             uuid.UUID           `json:"id"`
	SaleNumber     string              `json:"sale_number"`
	OperatorID     string              `json:"operator_id"`
	MemberID       *uuid.UUID          `json:"member_id,omitempty"`
	Subtotal       string              `json:"subtotal"`
	DiscountAmount string              `json:"discount_amount"`
	TaxAmount      string              `json:"tax_amount"`
	GrandTotal     string              `json:"grand_total"`
	PaymentMethod  enums.PaymentMethod `json:"payment_method"`
	PaymentStatus  enums.PaymentStatus `json:"payment_status"`
	BusinessDate   string              `json:"business_date"`
	Lines          []saleLineResponse  `json:"lines"`
	CreatedAt      time.Time           `json:"created_at"`
}

func newSaleResponse(s *models.Sale) *saleResponse {
	if s == nil {
		return nil
	}
	lines := make([]saleLineResponse, 0, len(s.Lines))
	for _, line := range s.Lines {
		lines = append(lines, saleLineResponse{
			ProductID:       line.ProductID,
			Quantity:        line.Quantity,
			UnitPrice:       money(line.UnitPrice),
			DiscountPercent: line.DiscountPercent.String(),
			LineTotal:       money(line.LineTotal),
		})
	}
	return &saleResponse{
		ID:             s.ID,
		SaleNumber:     s.SaleNumber,
		OperatorID:     s.OperatorID,
		MemberID:       s.MemberID,
		Subtotal:       money(s.Subtotal),
		DiscountAmount: money(s.DiscountAmount),
		TaxAmount:      money(s.TaxAmount),
		GrandTotal:     money(s.GrandTotal),
		PaymentMethod:  s.PaymentMethod,
		PaymentStatus:  s.PaymentStatus,
		BusinessDate:   s.BusinessDate.Format(time.DateOnly),
		Lines:          lines,
		CreatedAt:      s.CreatedAt,
	}
}

type checkoutResponse struct {
	State      enums.CheckoutState `json:"state"`
	Success    bool                `json:"success"`
	SaleNumber string              `json:"sale_number"`
	Sale       *saleResponse       `json:"sale,omitempty"`
}

func newCheckoutResponse(result checkout.Result) checkoutResponse {
	return checkoutResponse{
		State:      result.State,
		Success:    result.Success,
		SaleNumber: result.SaleNumber,
		Sale:       newSaleResponse(result.Sale),
	}
}
