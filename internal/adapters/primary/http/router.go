package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	mw "github.com/lorrc/service-desk-kpi/internal/adapters/primary/http/middleware"
	"github.com/lorrc/service-desk-kpi/internal/auth"
)

// RouterConfig collects the handlers and middleware the API router mounts.
type RouterConfig struct {
	Logger         *slog.Logger
	TokenManager   *auth.TokenManager
	AllowedOrigins []string
	// RateLimiter is applied per client IP to every route; nil disables it.
	RateLimiter *mw.RateLimiter
	// ReportLimiter is applied per user to the report routes; nil disables it.
	ReportLimiter *mw.RateLimiter

	Health  *HealthHandler
	Me      *MeHandler
	Reports *ReportHandler
}

// NewRouter builds the API router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(cfg.Logger))
	r.Use(mw.RecoveryLogger(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.RequestIDHeader},
		ExposedHeaders:   []string{mw.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           int((5 * time.Minute).Seconds()),
	}))
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Middleware)
	}

	// Probe paths stay outside /api/v1.
	if cfg.Health != nil {
		cfg.Health.RegisterRoutes(r)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(mw.JWTMiddleware(cfg.TokenManager))

			if cfg.Me != nil {
				r.Route("/me", cfg.Me.RegisterRoutes)
			}
			if cfg.Reports != nil {
				r.Route("/reports", func(r chi.Router) {
					if cfg.ReportLimiter != nil {
						r.Use(cfg.ReportLimiter.PerUser)
					}
					cfg.Reports.RegisterRoutes(r)
				})
			}
		})
	})

	return r
}
