// Package watchlist manages each user's list of movies to watch.
package watchlist

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Clark-Hu/moviewatch/internal/apperr"
	"github.com/Clark-Hu/moviewatch/internal/domain"
	"github.com/Clark-Hu/moviewatch/internal/repository"
)

// Store is the watchlist persistence.
type Store interface {
	Add(ctx context.Context, userID, movieID int64, status domain.WatchStatus) (domain.WatchlistEntry, bool, error)
	Remove(ctx context.Context, userID, movieID int64) error
	UpdateStatus(ctx context.Context, userID, movieID int64, status domain.WatchStatus) (domain.WatchlistEntry, error)
	ListByUser(ctx context.Context, userID int64) ([]repository.WatchlistRow, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	Contains(ctx context.Context, userID, movieID int64) (bool, error)
}

// MovieResolver finds or creates the movie an entry points at.
type MovieResolver interface {
	GetByID(ctx context.Context, id int64) (domain.Movie, error)
	EnsureByExternalID(ctx context.Context, params repository.MovieUpsertParams) (domain.Movie, bool, error)
}

// MovieRef identifies the movie to add. MovieID takes precedence; otherwise
// the movie is looked up by ExternalID and created from the remaining fields
// when it is not stored yet.
type MovieRef struct {
	MovieID     int64
	ExternalID  int64
	Title       string
	PosterPath  string
	Overview    string
	ReleaseDate *time.Time
}

// AddResult reports the stored entry. Created is false when the movie was
// already on the watchlist.
type AddResult struct {
	Entry   domain.WatchlistEntry
	Movie   domain.Movie
	Created bool
}

// Item is a watchlist entry with its movie.
type Item struct {
	Movie domain.Movie
	Entry domain.WatchlistEntry
}

// Manager implements the watchlist operations.
type Manager struct {
	store  Store
	movies MovieResolver
}

// NewManager builds a Manager.
func NewManager(store Store, movies MovieResolver) *Manager {
	return &Manager{store: store, movies: movies}
}

// Add puts a movie on the user's watchlist. Adding the same movie twice is a
// no-op that returns the existing entry.
func (m *Manager) Add(ctx context.Context, userID int64, ref MovieRef, rawStatus string) (AddResult, error) {
	const op = "watchlist.Add"
	if userID <= 0 {
		return AddResult{}, apperr.Unauthorized(op, "Please log in to manage your watchlist.")
	}
	status, err := domain.ParseWatchStatus(rawStatus)
	if err != nil {
		return AddResult{}, apperr.Validation(op, "Unknown watch status.")
	}

	movie, err := m.resolveMovie(ctx, op, ref)
	if err != nil {
		return AddResult{}, err
	}

	entry, created, err := m.store.Add(ctx, userID, movie.ID, status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AddResult{}, apperr.NotFound(op, "Movie not found.")
		}
		return AddResult{}, apperr.Persistence(op, err)
	}
	return AddResult{Entry: entry, Movie: movie, Created: created}, nil
}

func (m *Manager) resolveMovie(ctx context.Context, op string, ref MovieRef) (domain.Movie, error) {
	if ref.MovieID > 0 {
		movie, err := m.movies.GetByID(ctx, ref.MovieID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.Movie{}, apperr.NotFound(op, "Movie not found.")
			}
			return domain.Movie{}, apperr.Persistence(op, err)
		}
		return movie, nil
	}

	if ref.ExternalID <= 0 {
		return domain.Movie{}, apperr.Validation(op, "A movie must be selected.")
	}
	title := strings.TrimSpace(ref.Title)
	if title == "" {
		return domain.Movie{}, apperr.Validation(op, "Movie title is required.")
	}
	if !domain.FitsColumn(title, domain.MaxTitleLength) {
		return domain.Movie{}, apperr.Validation(op, "Movie title must be at most 255 characters.")
	}
	params := repository.MovieUpsertParams{
		TMDBID:      ref.ExternalID,
		Title:       title,
		ReleaseDate: ref.ReleaseDate,
		Overview:    strings.TrimSpace(ref.Overview),
	}
	if poster := strings.TrimSpace(ref.PosterPath); poster != "" {
		if !domain.FitsColumn(poster, domain.MaxPosterPathLength) {
			return domain.Movie{}, apperr.Validation(op, "Poster path must be at most 255 characters.")
		}
		params.PosterPath = &poster
	}
	movie, _, err := m.movies.EnsureByExternalID(ctx, params)
	if err != nil {
		return domain.Movie{}, apperr.Persistence(op, err)
	}
	return movie, nil
}

// Remove deletes the movie from the user's watchlist.
func (m *Manager) Remove(ctx context.Context, userID, movieID int64) error {
	const op = "watchlist.Remove"
	if err := m.store.Remove(ctx, userID, movieID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound(op, "Movie is not in your watchlist.")
		}
		return apperr.Persistence(op, err)
	}
	return nil
}

// UpdateStatus changes the status of an existing entry.
func (m *Manager) UpdateStatus(ctx context.Context, userID, movieID int64, rawStatus string) error {
	const op = "watchlist.UpdateStatus"
	status, err := domain.ParseWatchStatus(rawStatus)
	if err != nil {
		return apperr.Validation(op, "Unknown watch status.")
	}
	if _, err := m.store.UpdateStatus(ctx, userID, movieID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound(op, "Movie is not in your watchlist.")
		}
		return apperr.Persistence(op, err)
	}
	return nil
}

// List returns the user's watchlist, most recently added first.
func (m *Manager) List(ctx context.Context, userID int64) ([]Item, error) {
	rows, err := m.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Persistence("watchlist.List", err)
	}
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, Item{Movie: row.Movie, Entry: row.Entry})
	}
	return items, nil
}

// Count returns the number of movies on the user's watchlist.
func (m *Manager) Count(ctx context.Context, userID int64) (int64, error) {
	n, err := m.store.CountByUser(ctx, userID)
	if err != nil {
		return 0, apperr.Persistence("watchlist.Count", err)
	}
	return n, nil
}

// Contains reports whether the movie is on the user's watchlist. Anonymous
// callers never have one.
func (m *Manager) Contains(ctx context.Context, userID, movieID int64) (bool, error) {
	if userID <= 0 {
		return false, nil
	}
	ok, err := m.store.Contains(ctx, userID, movieID)
	if err != nil {
		return false, apperr.Persistence("watchlist.Contains", err)
	}
	return ok, nil
}
