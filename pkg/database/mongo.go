package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.mongodb.org/mongo-driver/v2/event"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI            string
	Database       string
	MaxPoolSize    uint64
	ConnectTimeout time.Duration
}

var mongoCommandDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "mongo_command_duration_seconds",
		Help:    "Duration of MongoDB commands issued by the driver",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"command", "outcome"},
)

// NewMongoClient connects to MongoDB and pings the primary, retrying startup
// failures like NewPostgresPool. Every command is timed into
// mongo_command_duration_seconds and checked against the slow query threshold.
func NewMongoClient(ctx context.Context, cfg *MongoConfig, logger *slog.Logger) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMonitor(CommandMonitor())
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
		opts.SetServerSelectionTimeout(cfg.ConnectTimeout)
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("create mongo client: %w", err)
	}

	err = retry(ctx, logger, "mongo ping", always, func() error {
		return client.Ping(ctx, readpref.Primary())
	})
	if err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	return client, nil
}

// MongoPinger adapts a client to the Pinger interface for health checks.
type MongoPinger struct {
	Client *mongo.Client
}

// Ping checks the primary is reachable.
func (p MongoPinger) Ping(ctx context.Context) error {
	return p.Client.Ping(ctx, readpref.Primary())
}

// CommandMonitor records command durations and reports slow commands.
func CommandMonitor() *event.CommandMonitor {
	return &event.CommandMonitor{
		Succeeded: func(ctx context.Context, e *event.CommandSucceededEvent) {
			observeCommand(ctx, e.CommandName, e.DatabaseName, e.Duration, nil)
		},
		Failed: func(ctx context.Context, e *event.CommandFailedEvent) {
			observeCommand(ctx, e.CommandName, e.DatabaseName, e.Duration, e.Failure)
		},
	}
}

func observeCommand(ctx context.Context, command, db string, d time.Duration, failure error) {
	outcome := "success"
	if failure != nil {
		outcome = "failure"
	}
	mongoCommandDuration.WithLabelValues(command, outcome).Observe(d.Seconds())

	threshold, logger := getSlowQueryConfig()
	if threshold <= 0 || logger == nil || d < threshold {
		return
	}
	attrs := []any{
		slog.String("db.system", "mongodb"),
		slog.String("command", command),
		slog.String("database", db),
		slog.Duration("duration", d),
	}
	if failure != nil {
		attrs = append(attrs, slog.String("error", failure.Error()))
	}
	logger.WarnContext(ctx, "slow query detected", attrs...)
}
