package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mayyinandprojects/Movie-API/pkg/logger"
)

type contextKeyType string

const userIDKey contextKeyType = "user_id"

var (
	// ErrMissingToken is returned when the request carries no Authorization header.
	ErrMissingToken = errors.New("missing authorization header")
	// ErrMalformedHeader is returned when the Authorization header is not "Bearer <token>".
	ErrMalformedHeader = errors.New("malformed authorization header")
)

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", ErrMalformedHeader
	}

	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrMalformedHeader
	}
	return token, nil
}

// WithUserID records the authenticated user id on ctx and refreshes the
// request-scoped logger so later log lines carry it.
func WithUserID(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, id)
	ctx = logger.WithUserID(ctx, id)
	return logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("user_id", id)))
}

// UserIDFromContext extracts the authenticated user id from the request context.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}
