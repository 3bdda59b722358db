package auth

import (
	"context"

	"github.com/mayyinandprojects/Movie-API/internal/domain"
)

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying the authenticated user.
func WithIdentity(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, identityKey{}, user)
}

// IdentityFromContext returns the authenticated user, if any.
func IdentityFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(identityKey{}).(*domain.User)
	return user, ok && user != nil
}
