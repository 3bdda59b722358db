package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mayyinandprojects/Movie-API/internal/domain"
	pkgkafka "github.com/mayyinandprojects/Movie-API/pkg/kafka"
	"github.com/mayyinandprojects/Movie-API/pkg/logger"
)

// AggregateTypeUser is the aggregate type of every user event.
const AggregateTypeUser = "user"

// SourceMovieAPI identifies events originating from this service.
const SourceMovieAPI = "movie-api"

// TopicUsers carries all user lifecycle events, keyed by user id.
var TopicUsers = pkgkafka.Topic("users")

// UserData is the payload of user lifecycle events. It never carries the
// password hash.
type UserData struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
}

type eventWriter interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes user domain events to Kafka.
type Producer struct {
	kafka  eventWriter
	logger *slog.Logger
}

// NewProducer creates a new event producer. A nil kafka producer yields a
// Producer that only logs, for deployments without a broker.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	if kafka == nil {
		return &Producer{logger: logger}
	}
	return &Producer{kafka: kafka, logger: logger}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, domain.EventUserRegistered, user.ID, userData(user))
}

// PublishUserUpdated publishes a user.updated event.
func (p *Producer) PublishUserUpdated(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, domain.EventUserUpdated, user.ID, userData(user))
}

// PublishUserDeleted publishes a user.deleted event.
func (p *Producer) PublishUserDeleted(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, domain.EventUserDeleted, user.ID, UserData{ID: user.ID, Username: user.Username})
}

func (p *Producer) publish(ctx context.Context, eventType, userID string, data UserData) error {
	if p.kafka == nil {
		p.logger.DebugContext(ctx, "event publishing disabled, dropping event",
			slog.String("event_type", eventType),
			slog.String("user_id", userID),
		)
		return nil
	}

	event, err := pkgkafka.NewEvent(eventType, userID, AggregateTypeUser, SourceMovieAPI, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}
	event.WithActor(logger.UserIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, TopicUsers, event); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "published "+eventType+" event",
		slog.String("user_id", userID),
	)
	return nil
}

func userData(u *domain.User) UserData {
	return UserData{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Name:     u.Name,
	}
}
