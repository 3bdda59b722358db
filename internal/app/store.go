package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mayyinandprojects/Movie-API/internal/config"
	"github.com/mayyinandprojects/Movie-API/internal/repository"
	mongorepo "github.com/mayyinandprojects/Movie-API/internal/repository/mongo"
	"github.com/mayyinandprojects/Movie-API/internal/repository/postgres"
	"github.com/mayyinandprojects/Movie-API/migrations"
	"github.com/mayyinandprojects/Movie-API/pkg/breaker"
	"github.com/mayyinandprojects/Movie-API/pkg/database"
	"github.com/mayyinandprojects/Movie-API/pkg/health"
)

// Store is the backing store selected by STORE_DRIVER, with both
// repositories wrapped in a shared circuit breaker.
type Store struct {
	Users  repository.UserRepository
	Movies repository.MovieRepository
	// Ping backs the readiness check.
	Ping health.Checker

	close func(ctx context.Context) error
}

// Close releases the store's connections.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// OpenStore connects to the configured store, prepares its schema (indexes
// for Mongo, migrations for Postgres) and returns breaker-guarded
// repositories.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	var (
		s   *Store
		err error
	)
	switch cfg.StoreDriver {
	case config.DriverMongo:
		s, err = openMongo(ctx, cfg, logger)
	case config.DriverPostgres:
		s, err = openPostgres(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	if err != nil {
		return nil, err
	}

	if t := cfg.SlowQueryThreshold(); t > 0 {
		database.SetSlowQueryLogging(t, logger)
	}

	cb := breaker.New(cfg.BreakerConfig(), repository.IsStoreHealthy, logger)
	s.Users = repository.NewBreakerUserRepository(s.Users, cb)
	s.Movies = repository.NewBreakerMovieRepository(s.Movies, cb)
	return s, nil
}

func openMongo(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	mongoCfg := cfg.MongoConfig()
	client, err := database.NewMongoClient(ctx, &mongoCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	logger.Info("connected to MongoDB", slog.String("database", cfg.MongoDB))

	db := client.Database(cfg.MongoDB)
	users := mongorepo.NewUserRepository(db)
	movies := mongorepo.NewMovieRepository(db)

	if err := ensureMongoIndexes(ctx, users, movies); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}

	return &Store{
		Users:  users,
		Movies: movies,
		Ping:   database.MongoPinger{Client: client}.Ping,
		close:  client.Disconnect,
	}, nil
}

func ensureMongoIndexes(ctx context.Context, users *mongorepo.UserRepository, movies *mongorepo.MovieRepository) error {
	if err := users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure %s indexes: %w", mongorepo.UsersCollection, err)
	}
	if err := movies.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure %s indexes: %w", mongorepo.MoviesCollection, err)
	}
	return nil
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	pool, err := ConnectPostgres(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, config.ServiceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if _, err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	return &Store{
		Users:  postgres.NewUserRepository(pool),
		Movies: postgres.NewMovieRepository(pool),
		Ping:   pool.Ping,
		close: func(context.Context) error {
			pool.Close()
			return nil
		},
	}, nil
}

// ConnectPostgres opens the Postgres pool without touching the schema.
func ConnectPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	pgCfg := cfg.PostgresConfig()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	return pool, nil
}
