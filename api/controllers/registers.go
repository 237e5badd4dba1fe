package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/venuepos/api/middleware"
	"github.com/angelmondragon/venuepos/api/responses"
	"github.com/angelmondragon/venuepos/api/validators"
	"github.com/angelmondragon/venuepos/internal/cart"
	"github.com/angelmondragon/venuepos/internal/checkout"
	"github.com/angelmondragon/venuepos/internal/register"
	"github.com/angelmondragon/venuepos/pkg/enums"
	pkgerrors "github.com/angelmondragon/venuepos/pkg/errors"
	"github.com/angelmondragon/venuepos/pkg/logger"
)

// ProductIDParam is the chi URL parameter naming a cart line's product.
const ProductIDParam = "productId"

// RegisterService is the register-session surface the HTTP layer drives.
type RegisterService interface {
	Cart(registerID string) (cart.Cart, error)
	AddProduct(ctx context.Context, registerID string, productID uuid.UUID) (cart.Cart, error)
	SetQuantity(registerID string, productID uuid.UUID, quantity int) (cart.Cart, error)
	SetDiscount(registerID string, productID uuid.UUID, pct decimal.Decimal) (cart.Cart, error)
	RemoveProduct(registerID string, productID uuid.UUID) (cart.Cart, error)
	AttachMember(ctx context.Context, registerID string, memberID uuid.UUID) (cart.Cart, error)
	DetachMember(registerID string) (cart.Cart, error)
	ClearCart(registerID string) (cart.Cart, error)
	SearchMembers(ctx context.Context, registerID string, seq uint64, query string) (register.MemberMatches, error)
	Checkout(ctx context.Context, registerID, operatorID string, method enums.PaymentMethod) checkout.Result
}

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

type updateItemRequest struct {
	Quantity        *int             `json:"quantity" validate:"omitempty,min=0,max=9999"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
}

type attachMemberRequest struct {
	MemberID uuid.UUID `json:"member_id" validate:"required"`
}

type checkoutRequest struct {
	PaymentMethod enums.PaymentMethod `json:"payment_method" validate:"required,oneof=cash card mobile"`
}

func writeCart(w http.ResponseWriter, r *http.Request, logg *logger.Logger, c cart.Cart, err error) {
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, newCartResponse(middleware.RegisterIDFromContext(r.Context()), c))
}

func unavailable(svc RegisterService, w http.ResponseWriter, r *http.Request, logg *logger.Logger) bool {
	if svc != nil {
		return false
	}
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "register service unavailable"))
	return true
}

// GetCart returns the register's current cart.
func GetCart(svc RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, w, r, logg) {
			return
		}
		c, err := svc.Cart(middleware.RegisterIDFromContext(r.Context()))
		writeCart(w, r, logg, c, err)
	}
}

// ClearCart empties the cart and resets the member search.
func ClearCart(svc RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, w, r, logg) {
			return
		}
		c, err := svc.ClearCart(middleware.RegisterIDFromContext(r.Context()))
		writeCart(w, r, logg, c, err)
	}
}

// AddCartItem adds one unit of a product; adding it again bumps the quantity.
func AddCartItem(svc RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, w, r, logg) {
			return
		}
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c, err := svc.AddProduct(r.Context(), middleware.RegisterIDFromContext(r.Context()), payload.ProductID)
		writeCart(w, r, logg, c, err)
	}
}

// UpdateCartItem sets a line's quantity and/or discount. Quantity applies
// first, so a zero quantity removes the line and the discount is a no-op.
func UpdateCartItem(svc RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, w, r, logg) {
			return
		}
		productID, err := validators.ParseUUIDParam(r, ProductIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Quantity == nil && payload.DiscountPercent == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "quantity or discount_percent required"))
			return
		}

		registerID := middleware.RegisterIDFromContext(r.Context())
		var c cart.Cart
		if payload.Quantity != nil {
			if c, err = svc.SetQuantity(registerID, productID, *payload.Quantity); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		if payload.DiscountPercent != nil {
			c, err = svc.SetDiscount(registerID, productID, *payload.DiscountPercent)
		}
		writeCart(w, r, logg, c, err)
	}
}

// RemoveCartItem drops a line.
func RemoveCartItem(svc RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, w, r, logg) {
			return
		}
		productID, err := validators.ParseUUIDParam(r, ProductIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c, err := svc.RemoveProduct(middleware.RegisterIDFromContext(r.Context()), productID)
		writeCart(w, r, logg, c, err)
	}
}

// AttachMember links an active member to the cart.
func AttachMember(svc RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, w, r, logg) {
			return
		}
		var payload attachMemberRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c, err := svc.AttachMember(r.Context(), middleware.RegisterIDFromContext(r.Context()), payload.MemberID)
		writeCart(w, r, logg, c, err)
	}
}

// DetachMember unlinks the cart's member.
func DetachMember(svc RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, w, r, logg) {
			return
		}
		c, err := svc.DetachMember(middleware.RegisterIDFromContext(r.Context()))
		writeCart(w, r, logg, c, err)
	}
}
