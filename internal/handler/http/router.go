package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/TranslateGo/pkg/health"
	"github.com/utafrali/TranslateGo/pkg/middleware"
)

// Handlers groups the route handlers. OAuth may be nil when no provider is
// configured.
type Handlers struct {
	Auth        *AuthHandler
	OAuth       *OAuthHandler
	Account     *AccountHandler
	Translation *TranslationHandler
}

// RouterConfig holds the cross-cutting router settings.
type RouterConfig struct {
	ServiceName       string
	CORS              middleware.CORSConfig
	PprofAllowedCIDRs []string
	// AuthRateLimit throttles the /auth routes per client. Nil disables it.
	AuthRateLimit     *middleware.RateLimitConfig
}

// NewRouter creates a chi router with all routes registered. gate is the
// AuthenticationGate; it runs on every API request.
func NewRouter(
	h Handlers,
	gate func(http.Handler) http.Handler,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(gate)

		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.NoStore)
			if cfg.AuthRateLimit != nil {
				r.Use(middleware.RateLimit(*cfg.AuthRateLimit, logger))
			}
			r.With(ContentTypeJSON).Post("/register", h.Auth.Register)
			r.With(ContentTypeJSON).Post("/login", h.Auth.Login)

			if h.OAuth != nil {
				r.Get("/oauth/providers", h.OAuth.Providers)
				r.Get("/oauth/{provider}/login", h.OAuth.Login)
				r.Get("/oauth/{provider}/callback", h.OAuth.Callback)
			}
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireAuthenticated)

			r.Get("/users/me", h.Account.Me)

			r.Route("/translations", func(r chi.Router) {
				r.With(ContentTypeJSON).Post("/", h.Translation.Create)
				r.Get("/", h.Translation.List)
				r.Get("/{id}", h.Translation.Get)
			})
		})
	})

	return r
}
