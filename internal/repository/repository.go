package repository

import (
	"context"

	"github.com/mayyinandprojects/Movie-API/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
// Lookups return apperrors.ErrNotFound when no record matches.
type UserRepository interface {
	// Create inserts a new user. A taken username yields apperrors.ErrAlreadyExists.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByUsername retrieves a user by their login name.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// List returns all users ordered by username.
	List(ctx context.Context) ([]domain.User, error)

	// Update replaces the mutable fields of an existing user.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user by their identifier.
	Delete(ctx context.Context, id string) error

	// AddFavorite adds movieID to the user's favorites and returns the updated user.
	AddFavorite(ctx context.Context, userID, movieID string) (*domain.User, error)

	// RemoveFavorite drops movieID from the user's favorites and returns the updated user.
	RemoveFavorite(ctx context.Context, userID, movieID string) (*domain.User, error)
}

// MovieRepository defines the operations over the movie catalog. The API only
// reads it; Upsert serves the operator seed command.
type MovieRepository interface {
	// List returns every movie ordered by title.
	List(ctx context.Context) ([]domain.Movie, error)

	// GetByTitle retrieves a movie by its exact title.
	GetByTitle(ctx context.Context, title string) (*domain.Movie, error)

	// GetGenre returns the genre record embedded in any movie of that genre.
	GetGenre(ctx context.Context, name string) (*domain.Genre, error)

	// GetDirector returns the director record embedded in any movie they directed.
	GetDirector(ctx context.Context, name string) (*domain.Director, error)

	// Exists reports whether a movie with the given id is in the catalog.
	Exists(ctx context.Context, id string) (bool, error)

	// Upsert inserts a movie or replaces the one with the same id.
	Upsert(ctx context.Context, movie *domain.Movie) error
}
