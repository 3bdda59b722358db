package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mayyinandprojects/Movie-API/internal/auth"
	"github.com/mayyinandprojects/Movie-API/internal/domain"
	"github.com/mayyinandprojects/Movie-API/internal/repository"
	apperrors "github.com/mayyinandprojects/Movie-API/pkg/errors"
)

// DuplicateUsernameCode is the error code for a taken username.
const DuplicateUsernameCode = "DUPLICATE_USERNAME"

// EventPublisher publishes user lifecycle events.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, user *domain.User) error
	PublishUserUpdated(ctx context.Context, user *domain.User) error
	PublishUserDeleted(ctx context.Context, user *domain.User) error
}

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(user *domain.User) (string, error)
}

// UserService implements registration, login and the self-service user
// operations.
type UserService struct {
	users       repository.UserRepository
	movies      repository.MovieRepository
	hasher      *auth.PasswordHasher
	credentials auth.Strategy[auth.Credentials]
	tokens      TokenIssuer
	events      EventPublisher
	logger      *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	users repository.UserRepository,
	movies repository.MovieRepository,
	hasher *auth.PasswordHasher,
	credentials auth.Strategy[auth.Credentials],
	tokens TokenIssuer,
	events EventPublisher,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:       users,
		movies:      movies,
		hasher:      hasher,
		credentials: credentials,
		tokens:      tokens,
		events:      events,
		logger:      logger,
	}
}

// RegisterInput holds the parameters for creating an account.
type RegisterInput struct {
	Username string
	Password string
	Email    string
	Name     string
	Birthday *domain.Date
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Username string
	Password string
}

// LoginResult is a successful login.
type LoginResult struct {
	User  *domain.User
	Token string
}

// UpdateInput holds the fields a user may change on their own record. Nil
// fields are left untouched.
type UpdateInput struct {
	Username *string
	Password *string
	Email    *string
	Name     *string
	Birthday *domain.Date
}

// Register creates a new account with a hashed password.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if err := s.ensureUsernameFree(ctx, input.Username); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:               uuid.New().String(),
		Username:         input.Username,
		PasswordHash:     hash,
		Email:            input.Email,
		Name:             input.Name,
		Birthday:         input.Birthday,
		FavoriteMovieIDs: []string{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.events.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))
	return user, nil
}

// Login verifies credentials and issues a bearer token. Caller-side
// failures are auth.ErrInvalidCredentials regardless of which check failed.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.credentials.Authenticate(ctx, auth.Credentials{
		Username: input.Username,
		Password: input.Password,
	})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			auth.ObserveLogin(auth.LoginInvalidCredentials)
			return nil, err
		}
		auth.ObserveLogin(auth.LoginError)
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		auth.ObserveLogin(auth.LoginError)
		return nil, apperrors.Internal(fmt.Errorf("issue token: %w", err))
	}

	auth.ObserveLogin(auth.LoginSuccess)
	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))

	return &LoginResult{User: user, Token: token}, nil
}

// List returns every user.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetByUsername returns the user with the given username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", username)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Update changes actor's own record. Issued tokens stay valid after a
// password change until they expire.
func (s *UserService) Update(ctx context.Context, actor *domain.User, username string, input UpdateInput) (*domain.User, error) {
	user, err := s.ownRecord(ctx, actor, username)
	if err != nil {
		return nil, err
	}

	if input.Username != nil && *input.Username != user.Username {
		if err := s.ensureUsernameFree(ctx, *input.Username); err != nil {
			return nil, err
		}
		user.Username = *input.Username
	}
	if input.Password != nil {
		hash, err := s.hashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Birthday != nil {
		user.Birthday = input.Birthday
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	if err := s.events.PublishUserUpdated(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.updated event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user updated", slog.String("user_id", user.ID))
	return user, nil
}

// Delete removes actor's own record.
func (s *UserService) Delete(ctx context.Context, actor *domain.User, username string) error {
	user, err := s.ownRecord(ctx, actor, username)
	if err != nil {
		return err
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("user", username)
		}
		return fmt.Errorf("delete user: %w", err)
	}

	if err := s.events.PublishUserDeleted(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.deleted event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user deleted", slog.String("user_id", user.ID))
	return nil
}

// AddFavorite adds movieID to actor's favorites. Adding a favorite twice is a no-op.
func (s *UserService) AddFavorite(ctx context.Context, actor *domain.User, username, movieID string) (*domain.User, error) {
	user, err := s.favoriteTarget(ctx, actor, username, movieID)
	if err != nil {
		return nil, err
	}

	updated, err := s.users.AddFavorite(ctx, user.ID, movieID)
	if err != nil {
		return nil, s.favoriteError(err, username)
	}
	return updated, nil
}

// RemoveFavorite drops movieID from actor's favorites.
func (s *UserService) RemoveFavorite(ctx context.Context, actor *domain.User, username, movieID string) (*domain.User, error) {
	user, err := s.favoriteTarget(ctx, actor, username, movieID)
	if err != nil {
		return nil, err
	}

	updated, err := s.users.RemoveFavorite(ctx, user.ID, movieID)
	if err != nil {
		return nil, s.favoriteError(err, username)
	}
	return updated, nil
}

func (s *UserService) favoriteTarget(ctx context.Context, actor *domain.User, username, movieID string) (*domain.User, error) {
	user, err := s.ownRecord(ctx, actor, username)
	if err != nil {
		return nil, err
	}

	exists, err := s.movies.Exists(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("check movie: %w", err)
	}
	if !exists {
		return nil, apperrors.NotFound("movie", movieID)
	}
	return user, nil
}

func (s *UserService) favoriteError(err error, username string) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NotFound("user", username)
	}
	return fmt.Errorf("update favorites: %w", err)
}

// ownRecord resolves username and checks it belongs to actor. An unknown
// username is NotFound; someone else's record is Forbidden.
func (s *UserService) ownRecord(ctx context.Context, actor *domain.User, username string) (*domain.User, error) {
	if actor == nil {
		return nil, apperrors.Unauthorized("Unauthenticated")
	}

	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if user.ID != actor.ID {
		s.logger.WarnContext(ctx, "rejected change to another user's record",
			slog.String("actor_id", actor.ID),
			slog.String("target_id", user.ID),
		)
		return nil, apperrors.Forbidden("you may only change your own account")
	}
	return user, nil
}

func (s *UserService) ensureUsernameFree(ctx context.Context, username string) error {
	_, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return apperrors.Duplicate(DuplicateUsernameCode, username)
	case errors.Is(err, apperrors.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("check username: %w", err)
	}
}

func (s *UserService) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return "", apperrors.InvalidInput("password must be at most 72 bytes")
		}
		return "", apperrors.Internal(err)
	}
	return hash, nil
}
