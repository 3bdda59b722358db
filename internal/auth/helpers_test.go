package auth

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/mayyinandprojects/Movie-API/internal/domain"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

type mockUserFinder struct {
	mock.Mock
}

func (m *mockUserFinder) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserFinder) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestHasher() *PasswordHasher {
	h, err := NewPasswordHasher(4)
	if err != nil {
		panic(err)
	}
	return h
}

func newTestTokenManager(now func() time.Time) *TokenManager {
	m, err := NewTokenManager(Config{Secret: testSecret, Now: now})
	if err != nil {
		panic(err)
	}
	return m
}
