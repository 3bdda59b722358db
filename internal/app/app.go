package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mayyinandprojects/Movie-API/internal/auth"
	"github.com/mayyinandprojects/Movie-API/internal/config"
	"github.com/mayyinandprojects/Movie-API/internal/event"
	handler "github.com/mayyinandprojects/Movie-API/internal/handler/http"
	"github.com/mayyinandprojects/Movie-API/internal/service"
	"github.com/mayyinandprojects/Movie-API/pkg/health"
	pkgkafka "github.com/mayyinandprojects/Movie-API/pkg/kafka"
	"github.com/mayyinandprojects/Movie-API/pkg/middleware"
	"github.com/mayyinandprojects/Movie-API/pkg/tracing"
)

// App wires together all dependencies and runs the movie API.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	store          *Store
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
	stopLimiter    context.CancelFunc
}

// initTracer is swapped in tests.
var initTracer = tracing.InitTracer

// closers releases resources acquired during startup, newest first.
type closers []func(context.Context) error

func (c *closers) add(fn func(context.Context) error) { *c = append(*c, fn) }

func (c closers) close(ctx context.Context, logger *slog.Logger) {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](ctx); err != nil {
			logger.Error("failed to release startup resource", slog.String("error", err.Error()))
		}
	}
}

// NewApp creates a new application instance, initializing all dependencies.
// Anything acquired before a failure is released again.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var acquired closers
	defer func() {
		if err != nil {
			acquired.close(context.WithoutCancel(ctx), logger)
		}
	}()

	tracerShutdown, err := initTracer(ctx, cfg.TracingConfig())
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	acquired.add(tracerShutdown)

	hasher, err := auth.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}
	tokens, err := auth.NewTokenManager(cfg.AuthConfig())
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}

	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	acquired.add(store.Close)

	// Kafka is optional; without it events are only logged.
	var producer *pkgkafka.Producer
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
		acquired.add(func(context.Context) error { return producer.Close() })
	}

	credentials, err := auth.NewCredentialStrategy(store.Users, hasher, logger)
	if err != nil {
		return nil, fmt.Errorf("credential strategy: %w", err)
	}

	userService := service.NewUserService(
		store.Users,
		store.Movies,
		hasher,
		credentials,
		tokens,
		event.NewProducer(producer, logger),
		logger,
	)
	movieService := service.NewMovieService(store.Movies)

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical(cfg.StoreDriver, store.Ping)
	if producer != nil {
		healthHandler.RegisterNonCritical("kafka", producer.Ping)
	}

	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	router := handler.NewRouter(handler.RouterConfig{
		ServiceName:       config.ServiceName,
		UserService:       userService,
		MovieService:      movieService,
		Tokens:            auth.NewTokenStrategy(tokens, store.Users),
		Health:            healthHandler,
		LoginLimiter:      middleware.NewRateLimiter(limiterCtx, cfg.LoginRateLimitRPS, cfg.LoginRateLimitBurst, logger).TrustProxies(cfg.TrustedProxyCIDRs),
		CORS:              middleware.DefaultCORSConfig(cfg.CORSAllowedOrigins...),
		PprofEnabled:      cfg.PprofEnabled,
		PprofAllowedCIDRs: cfg.PprofAllowedCIDRs,
		Logger:            logger,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		store:          store,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
		stopLimiter:    stopLimiter,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("store", a.cfg.StoreDriver),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush spans of drained requests)
// 3. Kafka producer
// 4. Store connections
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.HTTPShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.stopLimiter()

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	storeCtx, storeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer storeCancel()
	if err := a.store.Close(storeCtx); err != nil {
		a.logger.Error("store close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
