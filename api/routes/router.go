package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/midlandoil/storefront/api/controllers"
	checkoutcontrollers "github.com/midlandoil/storefront/api/controllers/checkout"
	"github.com/midlandoil/storefront/api/middleware"
	"github.com/midlandoil/storefront/internal/catalog"
	checkoutsvc "github.com/midlandoil/storefront/internal/checkout"
	"github.com/midlandoil/storefront/pkg/config"
	"github.com/midlandoil/storefront/pkg/db"
	"github.com/midlandoil/storefront/pkg/logger"
	"github.com/midlandoil/storefront/pkg/redis"
)

// Params wires the collaborators behind the HTTP surface. DB and Redis are
// optional; without Redis the idempotency and rate limit middleware pass
// requests straight through.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Catalog  catalog.Service
	Checkout checkoutsvc.Service
	Metrics  prometheus.Gatherer
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	var (
		idempotencyStore redis.IdempotencyStore
		limiterStore     middleware.RateLimiterStore
		redisPinger      db.Pinger
	)
	if p.Redis != nil {
		idempotencyStore = p.Redis
		limiterStore = p.Redis
		redisPinger = p.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.ClientIP(),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	createPolicy := middleware.NewRateLimitPolicy("checkout_create", cfg.RateLimit.Window, cfg.RateLimit.SessionCreateLimit)
	submitPolicy := middleware.NewRateLimitPolicy("checkout_submit", cfg.RateLimit.Window, cfg.RateLimit.SubmitLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg,
			controllers.Dependency{Name: "database", Pinger: p.DB},
			controllers.Dependency{Name: "redis", Pinger: redisPinger},
		))
	})

	if p.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products/{slug}/sizes", controllers.ProductSizes(p.Catalog, logg))

		r.Route("/checkout/sessions", func(r chi.Router) {
			r.Use(middleware.Idempotency(idempotencyStore, logg))

			r.With(middleware.RateLimit(createPolicy, limiterStore, logg)).
				Post("/", checkoutcontrollers.CreateSession(p.Checkout, logg))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", checkoutcontrollers.GetSession(p.Checkout, logg))
				r.Delete("/", checkoutcontrollers.DeleteSession(p.Checkout, logg))
				r.Post("/open", checkoutcontrollers.OpenSession(p.Checkout, logg))
				r.Post("/close", checkoutcontrollers.CloseSession(p.Checkout, logg))
				r.Put("/selection/size", checkoutcontrollers.ChooseSize(p.Checkout, logg))
				r.Put("/selection/quantity", checkoutcontrollers.SetPendingQuantity(p.Checkout, logg))
				r.Post("/selection/confirm", checkoutcontrollers.ConfirmAdd(p.Checkout, logg))
				r.Post("/basket/view", checkoutcontrollers.ViewBasket(p.Checkout, logg))
				r.Post("/basket/add-another", checkoutcontrollers.AddAnother(p.Checkout, logg))
				r.Patch("/basket/lines/{label}", checkoutcontrollers.UpdateLine(p.Checkout, logg))
				r.Delete("/basket/lines/{label}", checkoutcontrollers.RemoveLine(p.Checkout, logg))
				r.Post("/continue", checkoutcontrollers.Continue(p.Checkout, logg))
				r.Post("/back", checkoutcontrollers.Back(p.Checkout, logg))
				r.Put("/details", checkoutcontrollers.UpdateDetails(p.Checkout, logg))
				r.With(middleware.RateLimit(submitPolicy, limiterStore, logg)).
					Post("/submit", checkoutcontrollers.Submit(p.Checkout, logg))
			})
		})
	})

	return r
}
