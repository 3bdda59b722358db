package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mayyinandprojects/Movie-API/internal/domain"
	"github.com/mayyinandprojects/Movie-API/pkg/database"
	apperrors "github.com/mayyinandprojects/Movie-API/pkg/errors"
)

const movieColumns = `id, title, description, genre_name, genre_description,
	director_name, director_bio, director_birth_year, director_death_year,
	actors, image_path, featured`

// DuplicateTitleCode is the error code for a title already used by another movie.
const DuplicateTitleCode = "DUPLICATE_TITLE"

// MovieRepository implements repository.MovieRepository using PostgreSQL.
// Genre and director are denormalized onto each row, mirroring the document
// layout of the Mongo store.
type MovieRepository struct {
	db database.DBTX
}

// NewMovieRepository creates a new PostgreSQL-backed movie repository.
func NewMovieRepository(db database.DBTX) *MovieRepository {
	return &MovieRepository{db: db}
}

// List returns every movie ordered by title.
func (r *MovieRepository) List(ctx context.Context) (movies []domain.Movie, err error) {
	query := `SELECT ` + movieColumns + ` FROM movies ORDER BY title`

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "ListMovies", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	movies = []domain.Movie{}
	for rows.Next() {
		m, err := scanMovieRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie row: %w", err)
		}
		movies = append(movies, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movie rows: %w", err)
	}

	return movies, nil
}

// GetByTitle retrieves a movie by its exact title.
func (r *MovieRepository) GetByTitle(ctx context.Context, title string) (m *domain.Movie, err error) {
	query := `SELECT ` + movieColumns + ` FROM movies WHERE title = $1`

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "GetMovieByTitle", query)
	defer func() { end(err) }()

	m, err = scanMovieRow(r.db.QueryRow(ctx, query, title))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan movie: %w", err)
	}
	return m, nil
}

// GetGenre returns the genre stored on the first movie of that genre.
func (r *MovieRepository) GetGenre(ctx context.Context, name string) (g *domain.Genre, err error) {
	query := `SELECT genre_name, genre_description FROM movies WHERE genre_name = $1 ORDER BY title LIMIT 1`

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "GetGenre", query)
	defer func() { end(err) }()

	var genre domain.Genre
	err = r.db.QueryRow(ctx, query, name).Scan(&genre.Name, &genre.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan genre: %w", err)
	}
	return &genre, nil
}

// GetDirector returns the director stored on the first movie they directed.
func (r *MovieRepository) GetDirector(ctx context.Context, name string) (d *domain.Director, err error) {
	query := `
		SELECT director_name, director_bio, director_birth_year, director_death_year
		FROM movies
		WHERE director_name = $1
		ORDER BY title
		LIMIT 1`

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "GetDirector", query)
	defer func() { end(err) }()

	var director domain.Director
	err = r.db.QueryRow(ctx, query, name).Scan(
		&director.Name,
		&director.Bio,
		&director.BirthYear,
		&director.DeathYear,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan director: %w", err)
	}
	return &director, nil
}

// Exists reports whether a movie with the given id exists.
func (r *MovieRepository) Exists(ctx context.Context, id string) (exists bool, err error) {
	query := `SELECT EXISTS (SELECT 1 FROM movies WHERE id = $1)`

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "MovieExists", query)
	defer func() { end(err) }()

	if err = r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check movie exists: %w", err)
	}
	return exists, nil
}

// Upsert inserts m or overwrites the row with the same id.
func (r *MovieRepository) Upsert(ctx context.Context, m *domain.Movie) (err error) {
	query := `INSERT INTO movies (` + movieColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			genre_name = EXCLUDED.genre_name,
			genre_description = EXCLUDED.genre_description,
			director_name = EXCLUDED.director_name,
			director_bio = EXCLUDED.director_bio,
			director_birth_year = EXCLUDED.director_birth_year,
			director_death_year = EXCLUDED.director_death_year,
			actors = EXCLUDED.actors,
			image_path = EXCLUDED.image_path,
			featured = EXCLUDED.featured`

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "UpsertMovie", query)
	defer func() { end(err) }()

	actors := m.Actors
	if actors == nil {
		actors = []string{}
	}

	_, err = r.db.Exec(ctx, query,
		m.ID,
		m.Title,
		m.Description,
		m.Genre.Name,
		m.Genre.Description,
		m.Director.Name,
		m.Director.Bio,
		m.Director.BirthYear,
		m.Director.DeathYear,
		actors,
		m.ImagePath,
		m.Featured,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Duplicate(DuplicateTitleCode, m.Title)
		}
		return fmt.Errorf("upsert movie: %w", err)
	}
	return nil
}

func scanMovieRow(row pgx.Row) (*domain.Movie, error) {
	var m domain.Movie
	err := row.Scan(
		&m.ID,
		&m.Title,
		&m.Description,
		&m.Genre.Name,
		&m.Genre.Description,
		&m.Director.Name,
		&m.Director.Bio,
		&m.Director.BirthYear,
		&m.Director.DeathYear,
		&m.Actors,
		&m.ImagePath,
		&m.Featured,
	)
	if err != nil {
		return nil, err
	}
	if m.Actors == nil {
		m.Actors = []string{}
	}
	return &m, nil
}
