package mongo

import (
	"time"

	"github.com/mayyinandprojects/Movie-API/internal/domain"
)

// Collection names.
const (
	UsersCollection  = "users"
	MoviesCollection = "movies"
)

type userDocument struct {
	ID             string     `bson:"_id"`
	Username       string     `bson:"username"`
	PasswordHash   string     `bson:"password_hash"`
	Email          string     `bson:"email"`
	Name           string     `bson:"name"`
	Birthday       *time.Time `bson:"birthday,omitempty"`
	FavoriteMovies []string   `bson:"favorite_movies"`
	CreatedAt      time.Time  `bson:"created_at"`
	UpdatedAt      time.Time  `bson:"updated_at"`
}

func toUserDocument(u *domain.User) userDocument {
	doc := userDocument{
		ID:             u.ID,
		Username:       u.Username,
		PasswordHash:   u.PasswordHash,
		Email:          u.Email,
		Name:           u.Name,
		FavoriteMovies: u.FavoriteMovieIDs,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
	if u.Birthday != nil {
		t := u.Birthday.Time
		doc.Birthday = &t
	}
	if doc.FavoriteMovies == nil {
		doc.FavoriteMovies = []string{}
	}
	return doc
}

func (d userDocument) toDomain() *domain.User {
	u := &domain.User{
		ID:               d.ID,
		Username:         d.Username,
		PasswordHash:     d.PasswordHash,
		Email:            d.Email,
		Name:             d.Name,
		FavoriteMovieIDs: d.FavoriteMovies,
		CreatedAt:        d.CreatedAt.UTC(),
		UpdatedAt:        d.UpdatedAt.UTC(),
	}
	if d.Birthday != nil {
		b := domain.NewDate(d.Birthday.UTC())
		u.Birthday = &b
	}
	if u.FavoriteMovieIDs == nil {
		u.FavoriteMovieIDs = []string{}
	}
	return u
}

type genreDocument struct {
	Name        string `bson:"name"`
	Description string `bson:"description"`
}

type directorDocument struct {
	Name      string `bson:"name"`
	Bio       string `bson:"bio"`
	BirthYear *int   `bson:"birth_year,omitempty"`
	DeathYear *int   `bson:"death_year,omitempty"`
}

type movieDocument struct {
	ID          string           `bson:"_id"`
	Title       string           `bson:"title"`
	Description string           `bson:"description"`
	Genre       genreDocument    `bson:"genre"`
	Director    directorDocument `bson:"director"`
	Actors      []string         `bson:"actors"`
	ImagePath   string           `bson:"image_path,omitempty"`
	Featured    bool             `bson:"featured"`
}

func toMovieDocument(m *domain.Movie) movieDocument {
	actors := m.Actors
	if actors == nil {
		actors = []string{}
	}
	return movieDocument{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Genre:       genreDocument(m.Genre),
		Director:    directorDocument(m.Director),
		Actors:      actors,
		ImagePath:   m.ImagePath,
		Featured:    m.Featured,
	}
}

func (d movieDocument) toDomain() domain.Movie {
	m := domain.Movie{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Genre:       domain.Genre(d.Genre),
		Director:    domain.Director(d.Director),
		Actors:      d.Actors,
		ImagePath:   d.ImagePath,
		Featured:    d.Featured,
	}
	if m.Actors == nil {
		m.Actors = []string{}
	}
	return m
}
