package controllers

import (
	"net/http"

	"github.com/angelmondragon/venuepos/api/middleware"
	"github.com/angelmondragon/venuepos/api/responses"
	"github.com/angelmondragon/venuepos/api/validators"
	"github.com/angelmondragon/venuepos/pkg/logger"
)

const maxMemberQueryLen = 100

// SearchMembers runs the register's member search for ?q=. The caller may
// send its own ?seq= so out-of-order replies can be told apart; a reply for
// a superseded seq comes back as 409.
func SearchMembers(svc RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if unavailable(svc, w, r, logg) {
			return
		}
		seq, err := validators.ParseQueryUint(r, "seq")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query := validators.SanitizeString(r.URL.Query().Get("q"), maxMemberQueryLen)

		matches, err := svc.SearchMembers(r.Context(), middleware.RegisterIDFromContext(r.Context()), seq, query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := memberSearchResponse{Seq: matches.Seq, Members: make([]memberResponse, 0, len(matches.Members))}
		for _, m := range matches.Members {
			resp.Members = append(resp.Members, newMemberResponse(m))
		}
		responses.WriteSuccess(w, resp)
	}
}
