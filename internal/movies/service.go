// Package movies serves read-only browsing and search over the local catalog.
package movies

import (
	"context"
	"errors"
	"strings"

	"github.com/Clark-Hu/moviewatch/internal/apperr"
	"github.com/Clark-Hu/moviewatch/internal/domain"
	"github.com/Clark-Hu/moviewatch/internal/repository"
)

// MovieReader is the movie storage the Service reads from.
type MovieReader interface {
	GetByID(ctx context.Context, id int64) (domain.Movie, error)
	List(ctx context.Context) ([]domain.Movie, error)
	ListByGenre(ctx context.Context, genreID int64) ([]domain.Movie, error)
	SearchByTitle(ctx context.Context, q string) ([]domain.Movie, error)
}

// GenreReader is the genre storage the Service reads from.
type GenreReader interface {
	Get(ctx context.Context, id int64) (domain.Genre, error)
	ListWithCounts(ctx context.Context) ([]domain.GenreSummary, error)
}

// Service answers catalog browsing queries.
type Service struct {
	movies MovieReader
	genres GenreReader
}

// NewService returns a Service over the given readers.
func NewService(movies MovieReader, genres GenreReader) *Service {
	return &Service{movies: movies, genres: genres}
}

// Search matches query case-insensitively against titles. A blank query
// returns no results rather than everything.
func (s *Service) Search(ctx context.Context, query string) ([]domain.Movie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Movie{}, nil
	}
	items, err := s.movies.SearchByTitle(ctx, query)
	if err != nil {
		return nil, apperr.Persistence("movies.Search", err)
	}
	return items, nil
}

// List returns every local movie, popular ones first.
func (s *Service) List(ctx context.Context) ([]domain.Movie, error) {
	items, err := s.movies.List(ctx)
	if err != nil {
		return nil, apperr.Persistence("movies.List", err)
	}
	return items, nil
}

// Get returns one movie, or a NotFound error.
func (s *Service) Get(ctx context.Context, id int64) (domain.Movie, error) {
	movie, err := s.movies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Movie{}, apperr.NotFound("movies.Get", "Movie not found.")
		}
		return domain.Movie{}, apperr.Persistence("movies.Get", err)
	}
	return movie, nil
}

// Genres lists every genre with the number of local movies in it.
func (s *Service) Genres(ctx context.Context) ([]domain.GenreSummary, error) {
	items, err := s.genres.ListWithCounts(ctx)
	if err != nil {
		return nil, apperr.Persistence("movies.Genres", err)
	}
	return items, nil
}

// ByGenre returns the genre and its movies.
func (s *Service) ByGenre(ctx context.Context, genreID int64) (domain.Genre, []domain.Movie, error) {
	const op = "movies.ByGenre"
	genre, err := s.genres.Get(ctx, genreID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Genre{}, nil, apperr.NotFound(op, "Genre not found.")
		}
		return domain.Genre{}, nil, apperr.Persistence(op, err)
	}
	items, err := s.movies.ListByGenre(ctx, genreID)
	if err != nil {
		return domain.Genre{}, nil, apperr.Persistence(op, err)
	}
	return genre, items, nil
}
