package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mayyinandprojects/Movie-API/internal/domain"
	apperrors "github.com/mayyinandprojects/Movie-API/pkg/errors"
)

// Strategy authenticates some input and resolves it to a stored user.
type Strategy[In any] interface {
	Authenticate(ctx context.Context, in In) (*domain.User, error)
}

// Credentials is a login attempt.
type Credentials struct {
	Username string
	Password string
}

// UserFinder is the slice of the user store the strategies need.
type UserFinder interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// dummyPassword is compared against when the username is unknown so both
// failure paths pay for one bcrypt comparison.
const dummyPassword = "movie-api-timing-equalizer"

// CredentialStrategy verifies a username and password against the store.
type CredentialStrategy struct {
	users     UserFinder
	hasher    *PasswordHasher
	dummyHash string
	logger    *slog.Logger
}

var _ Strategy[Credentials] = (*CredentialStrategy)(nil)

// NewCredentialStrategy creates a credential strategy.
func NewCredentialStrategy(users UserFinder, hasher *PasswordHasher, logger *slog.Logger) (*CredentialStrategy, error) {
	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("credential strategy: %w", err)
	}
	return &CredentialStrategy{
		users:     users,
		hasher:    hasher,
		dummyHash: dummy,
		logger:    logger,
	}, nil
}

// Authenticate returns the user whose username and password match creds.
// Every caller-side failure is ErrInvalidCredentials; store failures are
// StoreUnavailable.
func (s *CredentialStrategy) Authenticate(ctx context.Context, creds Credentials) (*domain.User, error) {
	if creds.Username == "" || creds.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.hasher.Verify(creds.Password, s.dummyHash)
			s.logger.DebugContext(ctx, "login rejected", slog.String("reason", "unknown username"))
			return nil, ErrInvalidCredentials
		}
		return nil, storeUnavailable(err)
	}

	if !s.hasher.Verify(creds.Password, user.PasswordHash) {
		s.logger.InfoContext(ctx, "login rejected",
			slog.String("reason", "password mismatch"),
			slog.String("user_id", user.ID),
		)
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// TokenVerifier checks a raw bearer token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// TokenStrategy resolves a bearer token to the user it was issued for.
type TokenStrategy struct {
	tokens TokenVerifier
	users  UserFinder
}

var _ Strategy[string] = (*TokenStrategy)(nil)

// NewTokenStrategy creates a token strategy.
func NewTokenStrategy(tokens TokenVerifier, users UserFinder) *TokenStrategy {
	return &TokenStrategy{tokens: tokens, users: users}
}

// Authenticate verifies token and re-resolves its subject through the store.
func (s *TokenStrategy) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrTokenMissing
	}

	subject, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, subject)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, storeUnavailable(err)
	}
	return user, nil
}

// storeUnavailable keeps an existing AppError and wraps anything else.
func storeUnavailable(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && errors.Is(err, apperrors.ErrStoreUnavailable) {
		return err
	}
	return apperrors.StoreUnavailable(err)
}
