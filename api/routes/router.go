package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/plazagoods/storefront-backend/api/controllers"
	"github.com/plazagoods/storefront-backend/api/middleware"
	"github.com/plazagoods/storefront-backend/internal/cart"
	"github.com/plazagoods/storefront-backend/internal/products"
	"github.com/plazagoods/storefront-backend/pkg/auth/session"
	"github.com/plazagoods/storefront-backend/pkg/config"
	"github.com/plazagoods/storefront-backend/pkg/logger"
	"github.com/plazagoods/storefront-backend/pkg/metrics"
	"github.com/plazagoods/storefront-backend/pkg/redis"
)

// Deps carries everything the router wires together.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             controllers.Pinger
	Redis          *redis.Client
	SessionChecker session.AccessSessionChecker
	ProductService products.Service
	CartService    cart.Service
	HTTPMetrics    *metrics.HTTPMetrics
	PromGatherer   prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		deps.HTTPMetrics.Middleware,
	)

	pingers := map[string]controllers.Pinger{}
	if deps.DB != nil {
		pingers["database"] = deps.DB
	}
	if deps.Redis != nil {
		pingers["redis"] = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})

	if deps.PromGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.PromGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductsList(deps.ProductService, logg))
		r.Get("/{productID}", controllers.ProductGet(deps.ProductService, logg))
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))

		r.Get("/", controllers.CartFetch(deps.CartService, logg))

		r.Group(func(r chi.Router) {
			if deps.Redis != nil {
				r.Use(middleware.CartRateLimit(cfg.RateLimit, deps.Redis, logg))
			}
			r.Post("/", controllers.CartAdd(deps.CartService, deps.ProductService, logg))
			r.Patch("/{productID}", controllers.CartUpdateQuantity(deps.CartService, logg))
			r.Delete("/{productID}", controllers.CartRemove(deps.CartService, logg))
			r.Delete("/", controllers.CartClear(deps.CartService, logg))
		})
	})

	return r
}
