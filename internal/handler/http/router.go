package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mayyinandprojects/Movie-API/internal/auth"
	"github.com/mayyinandprojects/Movie-API/internal/service"
	"github.com/mayyinandprojects/Movie-API/pkg/health"
	"github.com/mayyinandprojects/Movie-API/pkg/middleware"
)

// RouterConfig carries everything NewRouter mounts.
type RouterConfig struct {
	ServiceName  string
	UserService  *service.UserService
	MovieService *service.MovieService
	// Tokens resolves bearer tokens for guarded routes.
	Tokens auth.Strategy[string]
	Health *health.Handler
	// LoginLimiter throttles POST /login per client IP. Nil disables it.
	LoginLimiter *middleware.RateLimiter
	CORS         middleware.CORSConfig

	PprofEnabled      bool
	PprofAllowedCIDRs []string

	Logger *slog.Logger
}

// NewRouter creates a chi router with all movie API routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	logger := cfg.Logger

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.CORS(cfg.CORS))

	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.LivenessHandler())
		r.Get("/health/ready", cfg.Health.ReadinessHandler())
	}
	r.Handle("/metrics", promhttp.Handler())

	if cfg.PprofEnabled {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)
	}

	authHandler := NewAuthHandler(cfg.UserService, logger)
	userHandler := NewUserHandler(cfg.UserService, logger)
	movieHandler := NewMovieHandler(cfg.MovieService, logger)
	guard := auth.Guard(cfg.Tokens, logger)

	r.Group(func(r chi.Router) {
		if cfg.LoginLimiter != nil {
			r.Use(cfg.LoginLimiter.Middleware)
		}
		r.Post("/login", authHandler.Login)
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", userHandler.Register)

		r.Group(func(r chi.Router) {
			r.Use(guard)

			r.Get("/", userHandler.List)
			r.Get("/{username}", userHandler.Get)
			r.Put("/{username}", userHandler.Update)
			r.Delete("/{username}", userHandler.Delete)
			r.Post("/{username}/movies/{movieID}", userHandler.AddFavorite)
			r.Delete("/{username}/movies/{movieID}", userHandler.RemoveFavorite)
		})
	})

	r.Route("/movies", func(r chi.Router) {
		r.Get("/", movieHandler.List)

		r.Group(func(r chi.Router) {
			r.Use(guard)

			r.Get("/genre/{name}", movieHandler.GetGenre)
			r.Get("/{title}", movieHandler.GetByTitle)
		})
	})

	r.With(guard).Get("/director/{name}", movieHandler.GetDirector)

	return r
}
