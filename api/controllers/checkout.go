package controllers

import (
	"net/http"

	"github.com/angelmondragon/venuepos/api/middleware"
	"github.com/angelmondragon/venuepos/api/responses"
	"github.com/angelmondragon/venuepos/api/validators"
	pkgerrors "github.com/angelmondragon/venuepos/pkg/errors"
	"github.com/angelmondragon/venuepos/pkg/logger"
)

// Checkout commits the register's cart as a sale. Committed sales answer
// 201; failures carry the error envelope, with partial commits exposing the
// sale number and applied steps for reconciliation.
func Checkout(svc RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, w, r, logg) {
			return
		}
		operatorID := middleware.OperatorIDFromContext(r.Context())
		if operatorID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "operator id required").
				WithDetails(map[string]any{"field": "X-Operator-Id"}))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result := svc.Checkout(r.Context(), middleware.RegisterIDFromContext(r.Context()), operatorID, payload.PaymentMethod)
		if !result.Success {
			err := result.Err
			if err == nil {
				err = pkgerrors.New(pkgerrors.CodeInternal, "checkout failed")
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutResponse(result))
	}
}
