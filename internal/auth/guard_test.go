package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mayyinandprojects/Movie-API/internal/domain"
	"github.com/mayyinandprojects/Movie-API/pkg/middleware"
)

const unauthenticatedBody = `{"error":{"code":"UNAUTHENTICATED","message":"Unauthenticated"}}`

type stubStrategy struct {
	user *domain.User
	err  error
	seen string
}

func (s *stubStrategy) Authenticate(_ context.Context, token string) (*domain.User, error) {
	s.seen = token
	return s.user, s.err
}

func identityEcho(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, user.ID, middleware.UserIDFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(user.Username))
	})
}

func serveGuarded(t *testing.T, strategy Strategy[string], header string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	Guard(strategy, newTestLogger())(identityEcho(t)).ServeHTTP(rec, req)
	return rec
}

func TestGuard_AdmitsValidToken(t *testing.T) {
	s := &stubStrategy{user: &domain.User{ID: "user-1", Username: "alice"}}

	rec := serveGuarded(t, s, "Bearer abc.def.ghi")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", rec.Body.String())
	assert.Equal(t, "abc.def.ghi", s.seen)
}

func TestGuard_SchemeIsCaseInsensitive(t *testing.T) {
	s := &stubStrategy{user: &domain.User{ID: "user-1", Username: "alice"}}
	rec := serveGuarded(t, s, "bearer abc.def.ghi")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuard_RejectsUniformly(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		strategy *stubStrategy
	}{
		{"missing header", "", &stubStrategy{}},
		{"wrong scheme", "Basic YWxpY2U6U2VjcjN0IQ==", &stubStrategy{}},
		{"empty token", "Bearer ", &stubStrategy{}},
		{"invalid token", "Bearer x", &stubStrategy{err: ErrTokenInvalid}},
		{"expired token", "Bearer x", &stubStrategy{err: ErrTokenExpired}},
		{"subject gone", "Bearer x", &stubStrategy{err: ErrSubjectNotFound}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveGuarded(t, tt.strategy, tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, unauthenticatedBody, rec.Body.String())
		})
	}
}

func TestGuard_StoreFailureIsServerError(t *testing.T) {
	s := &stubStrategy{err: storeUnavailable(errors.New("connection refused"))}

	rec := serveGuarded(t, s, "Bearer x")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "STORE_UNAVAILABLE")
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestGuard_WithTokenStrategy(t *testing.T) {
	tokens := newTestTokenManager(time.Now)
	users := new(mockUserFinder)
	alice := &domain.User{ID: "user-1", Username: "alice"}
	users.On("GetByID", mock.Anything, "user-1").Return(alice, nil)

	token, err := tokens.Issue(alice)
	require.NoError(t, err)

	rec := serveGuarded(t, NewTokenStrategy(tokens, users), "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serveGuarded(t, NewTokenStrategy(tokens, users), "Bearer "+token+"x")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIdentityFromContext_Empty(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	_, ok = IdentityFromContext(WithIdentity(context.Background(), nil))
	assert.False(t, ok)
}
