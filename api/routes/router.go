package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/venuepos/api/controllers"
	"github.com/angelmondragon/venuepos/api/middleware"
	"github.com/angelmondragon/venuepos/internal/products"
	"github.com/angelmondragon/venuepos/pkg/config"
	"github.com/angelmondragon/venuepos/pkg/db"
	"github.com/angelmondragon/venuepos/pkg/logger"
)

// NewRouter wires the register API. readiness maps a dependency name to its
// health check; nil entries are skipped. A nil gatherer hides /metrics.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]db.Pinger,
	gatherer prometheus.Gatherer,
	productService products.Service,
	registerService controllers.RegisterService,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(productService, logg))

		r.Route("/registers/{"+middleware.RegisterIDParam+"}", func(r chi.Router) {
			r.Use(middleware.RegisterContext(logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(registerService, logg))
				r.Delete("/", controllers.ClearCart(registerService, logg))
				r.Post("/items", controllers.AddCartItem(registerService, logg))
				r.Patch("/items/{"+controllers.ProductIDParam+"}", controllers.UpdateCartItem(registerService, logg))
				r.Delete("/items/{"+controllers.ProductIDParam+"}", controllers.RemoveCartItem(registerService, logg))
				r.Post("/member", controllers.AttachMember(registerService, logg))
				r.Delete("/member", controllers.DetachMember(registerService, logg))
			})
			r.Get("/members", controllers.SearchMembers(registerService, logg))
			r.Post("/checkout", controllers.Checkout(registerService, logg))
		})
	})

	return r
}
