package controllers

import (
	"net/http"

	"github.com/angelmondragon/venuepos/api/responses"
	"github.com/angelmondragon/venuepos/api/validators"
	"github.com/angelmondragon/venuepos/internal/products"
	pkgerrors "github.com/angelmondragon/venuepos/pkg/errors"
	"github.com/angelmondragon/venuepos/pkg/logger"
)

const maxCategoryLen = 64

// ListProducts returns the active catalog, optionally narrowed by ?category=.
func ListProducts(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		category := validators.SanitizeString(r.URL.Query().Get("category"), maxCategoryLen)
		items, err := svc.List(r.Context(), category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := make([]productResponse, 0, len(items))
		for _, item := range items {
			resp = append(resp, newProductResponse(item))
		}
		responses.WriteSuccess(w, resp)
	}
}
