package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/moviewatch/internal/domain"
)

// ReviewsRepository persists movie reviews.
type ReviewsRepository struct {
	pool *pgxpool.Pool
}

const reviewColumns = `r.id, r.user_id, r.movie_id, r.rating, r.review_text, r.created_at`

// Create stores a review. A missing user or movie yields ErrNotFound.
func (r *ReviewsRepository) Create(ctx context.Context, userID, movieID int64, rating int, text string) (domain.Review, error) {
	const query = `
        INSERT INTO reviews AS r (user_id, movie_id, rating, review_text)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + reviewColumns
	review, err := scanReview(r.pool.QueryRow(ctx, query, userID, movieID, rating, text))
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Review{}, ErrNotFound
		}
		return domain.Review{}, err
	}
	return review, nil
}

// Get fetches one review.
func (r *ReviewsRepository) Get(ctx context.Context, id int64) (domain.Review, error) {
	review, err := scanReview(r.pool.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews r WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Review{}, ErrNotFound
		}
		return domain.Review{}, err
	}
	return review, nil
}

// DeleteOwned removes the review if userID authored it. The row is locked
// between the ownership check and the delete. Returns ErrNotFound or
// ErrNotOwner when nothing is removed.
func (r *ReviewsRepository) DeleteOwned(ctx context.Context, reviewID, userID int64) (domain.Review, error) {
	var deleted domain.Review
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		review, err := scanReview(tx.QueryRow(ctx,
			`SELECT `+reviewColumns+` FROM reviews r WHERE r.id = $1 FOR UPDATE`, reviewID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if review.UserID != userID {
			return ErrNotOwner
		}
		if _, err := tx.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, reviewID); err != nil {
			return err
		}
		deleted = review
		return nil
	})
	if err != nil {
		return domain.Review{}, err
	}
	return deleted, nil
}

// ListByMovie returns reviews for a movie with author names, newest first.
func (r *ReviewsRepository) ListByMovie(ctx context.Context, movieID int64) ([]domain.ReviewView, error) {
	const query = `
        SELECT ` + reviewColumns + `, u.username
        FROM reviews r
        JOIN users u ON u.id = r.user_id
        WHERE r.movie_id = $1
        ORDER BY r.created_at DESC, r.id DESC
    `
	rows, err := r.pool.Query(ctx, query, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.ReviewView, 0)
	for rows.Next() {
		var v domain.ReviewView
		if err := rows.Scan(&v.ID, &v.UserID, &v.MovieID, &v.Rating, &v.ReviewText, &v.CreatedAt, &v.Username); err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

// CountByUser returns how many reviews the user has written.
func (r *ReviewsRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

func scanReview(row pgx.Row) (domain.Review, error) {
	var rv domain.Review
	if err := row.Scan(&rv.ID, &rv.UserID, &rv.MovieID, &rv.Rating, &rv.ReviewText, &rv.CreatedAt); err != nil {
		return domain.Review{}, err
	}
	return rv, nil
}
