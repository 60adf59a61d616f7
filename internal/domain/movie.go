package domain

import (
	"time"
	"unicode/utf8"
)

// UnknownGenreName is stored for genres that are referenced before their name is known.
const UnknownGenreName = "Unknown"

// Widths of the movies.title and movies.poster_path columns, in characters.
const (
	MaxTitleLength      = 255
	MaxPosterPathLength = 255
)

// FitsColumn reports whether v is at most limit characters long.
func FitsColumn(v string, limit int) bool {
	return utf8.RuneCountInString(v) <= limit
}

// Genre mirrors a catalog genre; ID is the catalog's own genre id.
type Genre struct {
	ID        int64
	Name      string
	UpdatedAt time.Time
}

// GenreSummary is a genre together with the number of local movies referencing it.
type GenreSummary struct {
	Genre
	MovieCount int64
}

// Movie represents the canonical movie entity in the database/service.
type Movie struct {
	ID          int64
	TMDBID      int64
	Title       string
	ReleaseDate *time.Time
	Overview    string
	PosterPath  *string
	GenreID     *int64
	GenreName   *string
	Popular     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReleaseYear returns the release year or 0 when unknown.
func (m Movie) ReleaseYear() int {
	if m.ReleaseDate == nil {
		return 0
	}
	return m.ReleaseDate.Year()
}
