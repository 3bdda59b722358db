package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/mayyinandprojects/Movie-API/internal/domain"
	"github.com/mayyinandprojects/Movie-API/pkg/breaker"
	apperrors "github.com/mayyinandprojects/Movie-API/pkg/errors"
)

// IsStoreHealthy reports whether err leaves the store's health untouched.
// Lookups that miss and writes that hit a constraint are answers, not outages.
func IsStoreHealthy(err error) bool {
	return err == nil ||
		errors.Is(err, apperrors.ErrNotFound) ||
		errors.Is(err, apperrors.ErrAlreadyExists) ||
		errors.Is(err, context.Canceled)
}

// guard runs fn through b and turns outages and open-circuit rejections into
// StoreUnavailable.
func guard[T any](b *breaker.Breaker, fn func() (T, error)) (T, error) {
	v, err := breaker.Execute(b, fn)
	if err != nil && !IsStoreHealthy(err) {
		var zero T
		return zero, storeError(b, err)
	}
	return v, err
}

func guardErr(b *breaker.Breaker, fn func() error) error {
	err := breaker.Do(b, fn)
	if err != nil && !IsStoreHealthy(err) {
		return storeError(b, err)
	}
	return err
}

func storeError(b *breaker.Breaker, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		return err
	case breaker.IsRejected(err):
		return apperrors.StoreUnavailable(fmt.Errorf("%s circuit open: %w", b.Name(), err))
	default:
		return apperrors.StoreUnavailable(err)
	}
}

// BreakerUserRepository decorates a UserRepository with a circuit breaker.
type BreakerUserRepository struct {
	next UserRepository
	cb   *breaker.Breaker
}

var _ UserRepository = (*BreakerUserRepository)(nil)

// NewBreakerUserRepository wraps next with cb.
func NewBreakerUserRepository(next UserRepository, cb *breaker.Breaker) *BreakerUserRepository {
	return &BreakerUserRepository{next: next, cb: cb}
}

func (r *BreakerUserRepository) Create(ctx context.Context, user *domain.User) error {
	return guardErr(r.cb, func() error { return r.next.Create(ctx, user) })
}

func (r *BreakerUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return guard(r.cb, func() (*domain.User, error) { return r.next.GetByID(ctx, id) })
}

func (r *BreakerUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return guard(r.cb, func() (*domain.User, error) { return r.next.GetByUsername(ctx, username) })
}

func (r *BreakerUserRepository) List(ctx context.Context) ([]domain.User, error) {
	return guard(r.cb, func() ([]domain.User, error) { return r.next.List(ctx) })
}

func (r *BreakerUserRepository) Update(ctx context.Context, user *domain.User) error {
	return guardErr(r.cb, func() error { return r.next.Update(ctx, user) })
}

func (r *BreakerUserRepository) Delete(ctx context.Context, id string) error {
	return guardErr(r.cb, func() error { return r.next.Delete(ctx, id) })
}

func (r *BreakerUserRepository) AddFavorite(ctx context.Context, userID, movieID string) (*domain.User, error) {
	return guard(r.cb, func() (*domain.User, error) { return r.next.AddFavorite(ctx, userID, movieID) })
}

func (r *BreakerUserRepository) RemoveFavorite(ctx context.Context, userID, movieID string) (*domain.User, error) {
	return guard(r.cb, func() (*domain.User, error) { return r.next.RemoveFavorite(ctx, userID, movieID) })
}

// BreakerMovieRepository decorates a MovieRepository with a circuit breaker.
type BreakerMovieRepository struct {
	next MovieRepository
	cb   *breaker.Breaker
}

var _ MovieRepository = (*BreakerMovieRepository)(nil)

// NewBreakerMovieRepository wraps next with cb.
func NewBreakerMovieRepository(next MovieRepository, cb *breaker.Breaker) *BreakerMovieRepository {
	return &BreakerMovieRepository{next: next, cb: cb}
}

func (r *BreakerMovieRepository) List(ctx context.Context) ([]domain.Movie, error) {
	return guard(r.cb, func() ([]domain.Movie, error) { return r.next.List(ctx) })
}

func (r *BreakerMovieRepository) GetByTitle(ctx context.Context, title string) (*domain.Movie, error) {
	return guard(r.cb, func() (*domain.Movie, error) { return r.next.GetByTitle(ctx, title) })
}

func (r *BreakerMovieRepository) GetGenre(ctx context.Context, name string) (*domain.Genre, error) {
	return guard(r.cb, func() (*domain.Genre, error) { return r.next.GetGenre(ctx, name) })
}

func (r *BreakerMovieRepository) GetDirector(ctx context.Context, name string) (*domain.Director, error) {
	return guard(r.cb, func() (*domain.Director, error) { return r.next.GetDirector(ctx, name) })
}

func (r *BreakerMovieRepository) Exists(ctx context.Context, id string) (bool, error) {
	return guard(r.cb, func() (bool, error) { return r.next.Exists(ctx, id) })
}

func (r *BreakerMovieRepository) Upsert(ctx context.Context, movie *domain.Movie) error {
	return guardErr(r.cb, func() error { return r.next.Upsert(ctx, movie) })
}
