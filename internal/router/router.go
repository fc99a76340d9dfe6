package router

import (
	"net/http"
	"time"

	"kiosk-pos/internal/handler"
	"kiosk-pos/internal/metrics"
	"kiosk-pos/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Config wires the handlers and cross-cutting concerns into the router.
type Config struct {
	Orders         *handler.OrderHandler
	Health         *handler.HealthHandler
	JWTSecret      string
	AllowedOrigins []string
	HTTPMetrics    *metrics.HTTPMetrics
	// MetricsHandler serves /metrics when non-nil.
	MetricsHandler http.Handler
	Logger         zerolog.Logger
}

// New creates a new HTTP router with all routes and middleware configured.
//
// Kiosk routes (placing an order, searching by pickup code) are open. The
// order board and status updates require a staff token with the Admin or
// Cashier role.
func New(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(cfg.HTTPMetrics.Middleware)
	r.Use(corsHandler(cfg.AllowedOrigins))

	r.Get("/health", cfg.Health.Check)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/", cfg.Orders.Create)
		r.Get("/search/{code}", cfg.Orders.Search)

		r.Group(func(r chi.Router) {
			r.Use(middleware.StaffAuth(cfg.JWTSecret, cfg.Logger))
			r.Use(middleware.RequireRole(middleware.RoleAdmin, middleware.RoleCashier))

			r.Get("/", cfg.Orders.List)
			r.Get("/{id}", cfg.Orders.Get)
			r.Patch("/{id}", cfg.Orders.Update)
			r.Put("/{id}", cfg.Orders.Update)
		})
	})

	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           int((10 * time.Minute).Seconds()),
	}).Handler
}
