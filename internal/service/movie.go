package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mayyinandprojects/Movie-API/internal/domain"
	"github.com/mayyinandprojects/Movie-API/internal/repository"
	apperrors "github.com/mayyinandprojects/Movie-API/pkg/errors"
)

// MovieService implements the catalog lookups and the operator import.
type MovieService struct {
	movies repository.MovieRepository
}

// NewMovieService creates a new movie service.
func NewMovieService(movies repository.MovieRepository) *MovieService {
	return &MovieService{movies: movies}
}

// List returns the whole catalog.
func (s *MovieService) List(ctx context.Context) ([]domain.Movie, error) {
	movies, err := s.movies.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	return movies, nil
}

// GetByTitle returns the movie with the given title.
func (s *MovieService) GetByTitle(ctx context.Context, title string) (*domain.Movie, error) {
	movie, err := s.movies.GetByTitle(ctx, title)
	if err != nil {
		return nil, notFoundAs(err, "movie", title)
	}
	return movie, nil
}

// GetGenre returns the genre with the given name.
func (s *MovieService) GetGenre(ctx context.Context, name string) (*domain.Genre, error) {
	genre, err := s.movies.GetGenre(ctx, name)
	if err != nil {
		return nil, notFoundAs(err, "genre", name)
	}
	return genre, nil
}

// GetDirector returns the director with the given name.
func (s *MovieService) GetDirector(ctx context.Context, name string) (*domain.Director, error) {
	director, err := s.movies.GetDirector(ctx, name)
	if err != nil {
		return nil, notFoundAs(err, "director", name)
	}
	return director, nil
}

// Import upserts movies into the catalog, assigning ids to movies without
// one. It stops at the first failure and returns how many were written.
func (s *MovieService) Import(ctx context.Context, movies []domain.Movie) (int, error) {
	for i := range movies {
		m := &movies[i]
		if m.Title == "" || m.Genre.Name == "" || m.Director.Name == "" {
			return i, apperrors.InvalidInput(fmt.Sprintf("movie %d: title, genre.name and director.name are required", i))
		}
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		if err := s.movies.Upsert(ctx, m); err != nil {
			return i, fmt.Errorf("upsert movie %q: %w", m.Title, err)
		}
	}
	return len(movies), nil
}

func notFoundAs(err error, resource, key string) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NotFound(resource, key)
	}
	return fmt.Errorf("get %s: %w", resource, err)
}
