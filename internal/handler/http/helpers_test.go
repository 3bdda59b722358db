package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mayyinandprojects/Movie-API/internal/auth"
	"github.com/mayyinandprojects/Movie-API/internal/domain"
	"github.com/mayyinandprojects/Movie-API/internal/event"
	"github.com/mayyinandprojects/Movie-API/internal/service"
	apperrors "github.com/mayyinandprojects/Movie-API/pkg/errors"
	"github.com/mayyinandprojects/Movie-API/pkg/health"
	"github.com/mayyinandprojects/Movie-API/pkg/middleware"
)

const testSecret = "handler-test-secret-long-enough-for-hs256"

// --- In-memory stores ---

type memUsers struct {
	mu    sync.Mutex
	users map[string]domain.User
	// failWith, when set, is returned by every call.
	failWith error
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]domain.User)}
}

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return apperrors.Duplicate(service.DuplicateUsernameCode, u.Username)
		}
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memUsers) List(_ context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	users := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.User) int {
		switch {
		case a.Username < b.Username:
			return -1
		case a.Username > b.Username:
			return 1
		}
		return 0
	})
	return users, nil
}

func (m *memUsers) Update(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memUsers) AddFavorite(_ context.Context, userID, movieID string) (*domain.User, error) {
	return m.changeFavorites(userID, func(u *domain.User) { u.AddFavorite(movieID) })
}

func (m *memUsers) RemoveFavorite(_ context.Context, userID, movieID string) (*domain.User, error) {
	return m.changeFavorites(userID, func(u *domain.User) { u.RemoveFavorite(movieID) })
}

func (m *memUsers) changeFavorites(userID string, fn func(*domain.User)) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	u.FavoriteMovieIDs = slices.Clone(u.FavoriteMovieIDs)
	fn(&u)
	m.users[userID] = u
	return &u, nil
}

type memMovies struct {
	movies []domain.Movie
}

func (m *memMovies) List(_ context.Context) ([]domain.Movie, error) {
	return m.movies, nil
}

func (m *memMovies) GetByTitle(_ context.Context, title string) (*domain.Movie, error) {
	for i := range m.movies {
		if m.movies[i].Title == title {
			return &m.movies[i], nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memMovies) GetGenre(_ context.Context, name string) (*domain.Genre, error) {
	for i := range m.movies {
		if m.movies[i].Genre.Name == name {
			return &m.movies[i].Genre, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memMovies) GetDirector(_ context.Context, name string) (*domain.Director, error) {
	for i := range m.movies {
		if m.movies[i].Director.Name == name {
			return &m.movies[i].Director, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memMovies) Exists(_ context.Context, id string) (bool, error) {
	for _, mv := range m.movies {
		if mv.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (m *memMovies) Upsert(_ context.Context, movie *domain.Movie) error {
	for i := range m.movies {
		if m.movies[i].ID == movie.ID {
			m.movies[i] = *movie
			return nil
		}
	}
	m.movies = append(m.movies, *movie)
	return nil
}

func sampleMovies() []domain.Movie {
	return []domain.Movie{
		{
			ID:          "movie-1",
			Title:       "The Matrix",
			Description: "A hacker learns the truth about his reality.",
			Genre:       domain.Genre{Name: "Science Fiction", Description: "Speculative futures."},
			Director:    domain.Director{Name: "Lana Wachowski", Bio: "American filmmaker."},
			Actors:      []string{"Keanu Reeves"},
			Featured:    true,
		},
		{
			ID:          "movie-2",
			Title:       "Spirited Away",
			Description: "A girl wanders into the world of spirits.",
			Genre:       domain.Genre{Name: "Animation", Description: "Drawn or rendered."},
			Director:    domain.Director{Name: "Hayao Miyazaki", Bio: "Japanese animator."},
		},
	}
}

// --- Test API ---

type testAPI struct {
	handler http.Handler
	users   *memUsers
	hasher  *auth.PasswordHasher
	tokens  *auth.TokenManager
}

type apiOption func(*auth.Config, *RouterConfig)

func withClock(now func() time.Time) apiOption {
	return func(c *auth.Config, _ *RouterConfig) { c.Now = now }
}

func withLoginLimiter(rl *middleware.RateLimiter) apiOption {
	return func(_ *auth.Config, rc *RouterConfig) { rc.LoginLimiter = rl }
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAPI(t *testing.T, opts ...apiOption) *testAPI {
	t.Helper()
	logger := newTestLogger()

	authCfg := auth.Config{Secret: testSecret, BcryptCost: 4}
	routerCfg := RouterConfig{
		ServiceName: "movie-api-test",
		Health:      health.NewHandler(),
		CORS:        middleware.DefaultCORSConfig("*"),
		Logger:      logger,
	}
	for _, opt := range opts {
		opt(&authCfg, &routerCfg)
	}

	hasher, err := auth.NewPasswordHasher(authCfg.BcryptCost)
	require.NoError(t, err)
	tokens, err := auth.NewTokenManager(authCfg)
	require.NoError(t, err)

	users := newMemUsers()
	movies := &memMovies{movies: sampleMovies()}

	credentials, err := auth.NewCredentialStrategy(users, hasher, logger)
	require.NoError(t, err)

	routerCfg.UserService = service.NewUserService(users, movies, hasher, credentials, tokens, event.NewProducer(nil, logger), logger)
	routerCfg.MovieService = service.NewMovieService(movies)
	routerCfg.Tokens = auth.NewTokenStrategy(tokens, users)

	return &testAPI{
		handler: NewRouter(routerCfg),
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
	}
}

// seedUser stores a user with the given plaintext password.
func (a *testAPI) seedUser(t *testing.T, id, username, password string) *domain.User {
	t.Helper()
	hash, err := a.hasher.Hash(password)
	require.NoError(t, err)

	now := time.Now().UTC()
	u := &domain.User{
		ID:               id,
		Username:         username,
		PasswordHash:     hash,
		Email:            username + "@example.com",
		Name:             username,
		FavoriteMovieIDs: []string{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, a.users.Create(context.Background(), u))
	return u
}

func (a *testAPI) tokenFor(t *testing.T, u *domain.User) string {
	t.Helper()
	token, err := a.tokens.Issue(u)
	require.NoError(t, err)
	return token
}

func bearer(token string) string {
	return "Bearer " + token
}
