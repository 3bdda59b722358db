package domain

// Movie is a catalog entry.
type Movie struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Genre       Genre    `json:"genre"`
	Director    Director `json:"director"`
	Actors      []string `json:"actors"`
	ImagePath   string   `json:"image_path,omitempty"`
	Featured    bool     `json:"featured"`
}

// Genre is embedded in each movie.
type Genre struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Director is embedded in each movie.
type Director struct {
	Name      string `json:"name"`
	Bio       string `json:"bio"`
	BirthYear *int   `json:"birth_year,omitempty"`
	DeathYear *int   `json:"death_year,omitempty"`
}
