package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mayyinandprojects/Movie-API/internal/domain"
	"github.com/mayyinandprojects/Movie-API/pkg/database"
	apperrors "github.com/mayyinandprojects/Movie-API/pkg/errors"
)

// DuplicateUsernameCode is the error code for a taken username.
const DuplicateUsernameCode = "DUPLICATE_USERNAME"

const userColumns = `id, username, password_hash, email, name, birthday, favorite_movie_ids, created_at, updated_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (err error) {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "CreateUser", query)
	defer func() { end(err) }()

	if u.FavoriteMovieIDs == nil {
		u.FavoriteMovieIDs = []string{}
	}

	_, err = r.db.Exec(ctx, query,
		u.ID,
		u.Username,
		u.PasswordHash,
		u.Email,
		u.Name,
		birthdayValue(u.Birthday),
		u.FavoriteMovieIDs,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Duplicate(DuplicateUsernameCode, u.Username)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(ctx, "GetUserByID", query, id)
}

// GetByUsername retrieves a user by their login name.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.scanUser(ctx, "GetUserByUsername", query, username)
}

// List returns every user ordered by username.
func (r *UserRepository) List(ctx context.Context) (users []domain.User, err error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY username`

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "ListUsers", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users = []domain.User{}
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}

	return users, nil
}

// Update modifies an existing user in the database.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) (err error) {
	u.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET username = $1, password_hash = $2, email = $3, name = $4, birthday = $5, updated_at = $6
		WHERE id = $7`

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "UpdateUser", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query,
		u.Username,
		u.PasswordHash,
		u.Email,
		u.Name,
		birthdayValue(u.Birthday),
		u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Duplicate(DuplicateUsernameCode, u.Username)
		}
		return fmt.Errorf("update user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", u.ID)
	}

	return nil
}

// Delete removes a user from the database by their ID.
func (r *UserRepository) Delete(ctx context.Context, id string) (err error) {
	query := `DELETE FROM users WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "DeleteUser", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}

	return nil
}

// AddFavorite appends movieID to the user's favorites unless already present.
func (r *UserRepository) AddFavorite(ctx context.Context, userID, movieID string) (*domain.User, error) {
	query := `
		UPDATE users
		SET favorite_movie_ids = CASE
		        WHEN $2 = ANY(favorite_movie_ids) THEN favorite_movie_ids
		        ELSE array_append(favorite_movie_ids, $2)
		    END,
		    updated_at = $3
		WHERE id = $1
		RETURNING ` + userColumns

	return r.scanUser(ctx, "AddFavorite", query, userID, movieID, time.Now().UTC())
}

// RemoveFavorite drops movieID from the user's favorites.
func (r *UserRepository) RemoveFavorite(ctx context.Context, userID, movieID string) (*domain.User, error) {
	query := `
		UPDATE users
		SET favorite_movie_ids = array_remove(favorite_movie_ids, $2), updated_at = $3
		WHERE id = $1
		RETURNING ` + userColumns

	return r.scanUser(ctx, "RemoveFavorite", query, userID, movieID, time.Now().UTC())
}

// scanUser executes a query expected to return a single user row.
func (r *UserRepository) scanUser(ctx context.Context, op, query string, args ...any) (u *domain.User, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, op, query)
	defer func() { end(err) }()

	u, err = scanUserRow(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return u, nil
}

func scanUserRow(row pgx.Row) (*domain.User, error) {
	var (
		u        domain.User
		birthday *time.Time
	)

	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.Email,
		&u.Name,
		&birthday,
		&u.FavoriteMovieIDs,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if birthday != nil {
		d := domain.NewDate(*birthday)
		u.Birthday = &d
	}
	if u.FavoriteMovieIDs == nil {
		u.FavoriteMovieIDs = []string{}
	}
	return &u, nil
}

func birthdayValue(d *domain.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "23505")
}
