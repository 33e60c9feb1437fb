// Package server exposes the HTTP API.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"igserve/pkg/logger"
	"igserve/pkg/metrics"
	"igserve/pkg/models"
	"igserve/pkg/ratelimit"
	"igserve/pkg/scraper"
)

// CountryService is the catalog behaviour the handlers need
type CountryService interface {
	List(ctx context.Context) ([]models.Country, error)
	Create(ctx context.Context, name string) (*models.Country, error)
	States() []string
}

// VideoFetcher is the Instagram behaviour the handlers need
type VideoFetcher interface {
	FetchVideo(ctx context.Context, rawURL string, mode scraper.Mode) (*models.Video, error)
	Login(ctx context.Context) (string, error)
}

// HealthChecker reports whether the database is reachable
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// Deps holds everything the router needs. Optional fields may be nil.
type Deps struct {
	Countries CountryService
	Videos    VideoFetcher
	Logger    logger.Logger

	Health         HealthChecker
	Limiter        ratelimit.Limiter
	Metrics        metrics.Recorder
	MetricsHandler http.Handler

	// TrustProxy takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable it only behind a proxy that overwrites them.
	TrustProxy bool
}

// NewRouter wires routes and middleware.
//
// Middleware order: RealIP (with TrustProxy) → RequestID → Recovery →
// Logging → Metrics, with the rate limiter only on the Instagram routes.
func NewRouter(deps *Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = logger.GetLogger()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop{}
	}

	h := &handlers{
		countries: deps.Countries,
		videos:    deps.Videos,
		health:    deps.Health,
		metrics:   deps.Metrics,
	}

	r := chi.NewRouter()
	if deps.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(requestIDMiddleware)
	r.Use(recoveryMiddleware(deps.Logger))
	r.Use(loggingMiddleware(deps.Logger))
	r.Use(metricsMiddleware(deps.Metrics))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorMessage(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", h.healthCheck)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Get("/states", h.listStates)
	r.Get("/countries", h.listCountries)
	r.Post("/countries", h.createCountry)

	r.Group(func(r chi.Router) {
		if deps.Limiter != nil {
			r.Use(rateLimitMiddleware(deps.Limiter, deps.Metrics, deps.Logger))
		}
		r.Post("/download_instagram", h.downloadInstagram)
		r.Post("/download_instagram_login", h.downloadInstagramLogin)
		r.Get("/login_instagram", h.loginInstagram)
	})

	return r
}
