package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/venuepos/api/validators"
	"github.com/angelmondragon/venuepos/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID echoes the caller's X-Request-Id, or mints one, and tags the
// request logger with it. Oversized inbound ids are truncated.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := validators.SanitizeString(r.Header.Get(requestIDHeader), maxIdentifierLen)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
