package controllers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/venuepos/api/responses"
	"github.com/angelmondragon/venuepos/pkg/config"
	"github.com/angelmondragon/venuepos/pkg/db"
	pkgerrors "github.com/angelmondragon/venuepos/pkg/errors"
	"github.com/angelmondragon/venuepos/pkg/logger"
)

const readinessTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-VenuePOS-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency concurrently and reports 503 when any
// of them is down.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]db.Pinger) http.HandlerFunc {
	names := make([]string, 0, len(deps))
	for name, pinger := range deps {
		if pinger != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-VenuePOS-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		results := make([]string, len(names))
		var g errgroup.Group
		for i, name := range names {
			g.Go(func() error {
				if err := deps[name].Ping(ctx); err != nil {
					results[i] = err.Error()
					return err
				}
				results[i] = "ok"
				return nil
			})
		}
		err := g.Wait()

		checks := make(map[string]string, len(names))
		for i, name := range names {
			checks[name] = results[i]
		}

		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dependency unavailable").
				WithDetails(map[string]any{"checks": checks}))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
