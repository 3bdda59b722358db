package auth

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/mayyinandprojects/Movie-API/pkg/errors"
	"github.com/mayyinandprojects/Movie-API/pkg/httputil"
	"github.com/mayyinandprojects/Movie-API/pkg/logger"
	"github.com/mayyinandprojects/Movie-API/pkg/middleware"
)

// unauthenticated is the single response for every token failure.
var unauthenticated = apperrors.Unauthorized("Unauthenticated")

// Guard returns middleware that admits only requests carrying a bearer token
// the strategy accepts. The resolved user is stored with WithIdentity.
func Guard(strategy Strategy[string], fallback *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, err := middleware.BearerToken(r)
			if err != nil {
				if errors.Is(err, middleware.ErrMissingToken) {
					err = ErrTokenMissing
				} else {
					err = ErrTokenMalformed
				}
				reject(w, r, err, fallback)
				return
			}

			user, err := strategy.Authenticate(ctx, token)
			if err != nil {
				if !errors.Is(err, ErrUnauthenticated) {
					httputil.WriteError(w, r, err, fallback)
					return
				}
				reject(w, r, err, fallback)
				return
			}

			ctx = middleware.WithUserID(ctx, user.ID)
			ctx = WithIdentity(ctx, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func reject(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	reason := rejectionReason(err)
	tokenRejections.WithLabelValues(reason).Inc()

	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}
	l.InfoContext(r.Context(), "request unauthenticated",
		slog.String("reason", reason),
		slog.String("error", err.Error()),
		slog.String("path", r.URL.Path),
	)

	httputil.WriteError(w, r, unauthenticated, fallback)
}
