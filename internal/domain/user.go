package domain

import (
	"slices"
	"time"
)

// BirthdayLayout is the wire format of User.Birthday.
const BirthdayLayout = time.DateOnly

// User is a registered account. PasswordHash holds a bcrypt hash and is
// never serialized.
type User struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	PasswordHash     string    `json:"-"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Birthday         *Date     `json:"birthday,omitempty"`
	FavoriteMovieIDs []string  `json:"favorite_movies"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// HasFavorite reports whether movieID is in the user's favorites.
func (u *User) HasFavorite(movieID string) bool {
	return slices.Contains(u.FavoriteMovieIDs, movieID)
}

// AddFavorite adds movieID to the favorites set. It reports whether the set changed.
func (u *User) AddFavorite(movieID string) bool {
	if u.HasFavorite(movieID) {
		return false
	}
	u.FavoriteMovieIDs = append(u.FavoriteMovieIDs, movieID)
	return true
}

// RemoveFavorite drops movieID from the favorites set. It reports whether the set changed.
func (u *User) RemoveFavorite(movieID string) bool {
	i := slices.Index(u.FavoriteMovieIDs, movieID)
	if i < 0 {
		return false
	}
	u.FavoriteMovieIDs = slices.Delete(u.FavoriteMovieIDs, i, i+1)
	return true
}

// Date is a calendar date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(BirthdayLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// NewDate truncates t to its calendar date in UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// String implements fmt.Stringer.
func (d Date) String() string {
	return d.Format(BirthdayLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return &time.ParseError{Layout: BirthdayLayout, Value: s}
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
