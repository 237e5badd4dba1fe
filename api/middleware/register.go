package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/venuepos/api/responses"
	pkgerrors "github.com/angelmondragon/venuepos/pkg/errors"
	"github.com/angelmondragon/venuepos/pkg/logger"
)

const (
	// RegisterIDParam is the chi URL parameter naming the register.
	RegisterIDParam  = "registerId"
	operatorIDHeader = "X-Operator-Id"
	maxIdentifierLen = 64
)

// RegisterContext resolves the register from the route and the operator from
// the X-Operator-Id header, and tags the request logger with both.
func RegisterContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			registerID := strings.TrimSpace(chi.URLParam(r, RegisterIDParam))
			if registerID == "" || len(registerID) > maxIdentifierLen {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid register id").
					WithDetails(map[string]any{"field": RegisterIDParam}))
				return
			}

			ctx := WithRegisterID(r.Context(), registerID)
			if logg != nil {
				ctx = logg.WithRegisterID(ctx, registerID)
			}

			if operatorID := strings.TrimSpace(r.Header.Get(operatorIDHeader)); operatorID != "" {
				if len(operatorID) > maxIdentifierLen {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid operator id").
						WithDetails(map[string]any{"field": operatorIDHeader}))
					return
				}
				ctx = WithOperatorID(ctx, operatorID)
				if logg != nil {
					ctx = logg.WithOperatorID(ctx, operatorID)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
