package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trendora/searchsync/pkg/health"
	"github.com/trendora/searchsync/pkg/middleware"
)

// RouterConfig bundles the dependencies of the HTTP surface.
type RouterConfig struct {
	Sync    SyncService
	Facets  FacetProvider
	Locales []string
	Health  *health.Handler
	Logger  *slog.Logger

	// ReindexRPS throttles the bulk reindex endpoint; it walks the whole
	// catalog and must not be triggerable in a tight loop.
	ReindexRPS   float64
	ReindexBurst int
}

// NewRouter creates a chi router with all indexing routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("searchsync"))

	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	handler := NewIndexingHandler(cfg.Sync, cfg.Facets, cfg.Locales, cfg.Logger)

	rps := cfg.ReindexRPS
	if rps <= 0 {
		rps = 0.1
	}
	burst := cfg.ReindexBurst
	if burst <= 0 {
		burst = 1
	}

	r.Route("/api/v1/indexing", func(r chi.Router) {
		r.Post("/products/{id}", handler.IndexProduct)
		r.Delete("/products/{slug}", handler.DeleteProduct)
		r.Get("/facets/{locale}", handler.Facets)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(rps, burst))
			r.Post("/reindex", handler.Reindex)
		})
	})

	return r
}
