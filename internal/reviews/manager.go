// Package reviews handles user reviews of movies.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Clark-Hu/moviewatch/internal/apperr"
	"github.com/Clark-Hu/moviewatch/internal/domain"
	"github.com/Clark-Hu/moviewatch/internal/repository"
)

// Store is the review persistence.
type Store interface {
	Create(ctx context.Context, userID, movieID int64, rating int, text string) (domain.Review, error)
	DeleteOwned(ctx context.Context, reviewID, userID int64) (domain.Review, error)
	ListByMovie(ctx context.Context, movieID int64) ([]domain.ReviewView, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
}

// DeleteResult identifies the movie the deleted review belonged to.
type DeleteResult struct {
	MovieID int64
}

// Manager implements review submission and deletion.
type Manager struct {
	store Store
}

// NewManager returns a Manager backed by store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Submit validates and stores a new review. A user may review the same movie
// more than once.
func (m *Manager) Submit(ctx context.Context, userID, movieID int64, rating int, text string) (domain.Review, error) {
	const op = "reviews.Submit"
	if userID <= 0 {
		return domain.Review{}, apperr.Unauthorized(op, "Please log in to write a review.")
	}
	if rating < domain.MinRating || rating > domain.MaxRating {
		return domain.Review{}, apperr.Validation(op,
			fmt.Sprintf("Rating must be between %d and %d.", domain.MinRating, domain.MaxRating))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Review{}, apperr.Validation(op, "Review text cannot be empty.")
	}

	review, err := m.store.Create(ctx, userID, movieID, rating, text)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Review{}, apperr.NotFound(op, "Movie not found.")
		}
		return domain.Review{}, apperr.Persistence(op, err)
	}
	return review, nil
}

// Delete removes a review written by userID.
func (m *Manager) Delete(ctx context.Context, userID, reviewID int64) (DeleteResult, error) {
	const op = "reviews.Delete"
	review, err := m.store.DeleteOwned(ctx, reviewID, userID)
	switch {
	case err == nil:
		return DeleteResult{MovieID: review.MovieID}, nil
	case errors.Is(err, repository.ErrNotFound):
		return DeleteResult{}, apperr.NotFound(op, "Review not found.")
	case errors.Is(err, repository.ErrNotOwner):
		return DeleteResult{}, apperr.Forbidden(op, "You can only delete your own reviews.")
	default:
		return DeleteResult{}, apperr.Persistence(op, err)
	}
}

// ListForMovie returns the movie's reviews, newest first.
func (m *Manager) ListForMovie(ctx context.Context, movieID int64) ([]domain.ReviewView, error) {
	views, err := m.store.ListByMovie(ctx, movieID)
	if err != nil {
		return nil, apperr.Persistence("reviews.ListForMovie", err)
	}
	return views, nil
}

// CountByUser returns how many reviews the user has written.
func (m *Manager) CountByUser(ctx context.Context, userID int64) (int64, error) {
	n, err := m.store.CountByUser(ctx, userID)
	if err != nil {
		return 0, apperr.Persistence("reviews.CountByUser", err)
	}
	return n, nil
}
