package router

import (
	"net/http"
	"time"

	"discounter/internal/handler"
	"discounter/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(discountHandler *handler.DiscountHandler, now func() time.Time, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Applied in order: Recovery -> Logging -> CORS
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)

	r.Get("/health", handler.Health(now))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/discounts", func(r chi.Router) {
		r.With(middleware.RequireIdentity(middleware.HeaderCurrentBrand, logger)).
			Post("/register", discountHandler.Register)
		r.Get("/{identifier}", discountHandler.View)
		r.With(middleware.RequireIdentity(middleware.HeaderCurrentUser, logger)).
			Post("/{identifier}", discountHandler.Issue)
	})

	return r
}
