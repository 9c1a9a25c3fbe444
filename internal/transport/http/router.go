package http

import (
	"log/slog"
	"math/rand"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"csviz/internal/analytics"
	"csviz/internal/config"
	"csviz/internal/exporter"
	"csviz/internal/middleware"
	"csviz/internal/sampler"
)

// NewRouter assembles the API router with the standard middleware chain.
func NewRouter(service DataService, chart config.ChartConfig, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))

	engine := analytics.New(logger)
	smp := sampler.New(rand.New(rand.NewSource(rand.Int63())), logger)
	writer := exporter.New(logger)

	data := NewDataHandler(service, engine, smp, writer, chart, logger)
	health := NewHealthHandler(service, logger)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/data", data.Routes())
		r.Mount("/health", health.Routes())
	})

	return r
}
