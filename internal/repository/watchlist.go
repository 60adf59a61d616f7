package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/moviewatch/internal/domain"
)

// WatchlistRepository stores per-user watchlist entries.
type WatchlistRepository struct {
	pool *pgxpool.Pool
}

// WatchlistRow joins an entry with its movie.
type WatchlistRow struct {
	Entry domain.WatchlistEntry
	Movie domain.Movie
}

const entryColumns = `w.id, w.user_id, w.movie_id, w.added_at, w.status`

// Add inserts the (user, movie) pair. When the pair already exists the stored
// entry is returned unchanged and inserted is false. Concurrent calls for the
// same pair never produce two rows.
func (r *WatchlistRepository) Add(ctx context.Context, userID, movieID int64, status domain.WatchStatus) (domain.WatchlistEntry, bool, error) {
	const query = `
        INSERT INTO watchlist AS w (user_id, movie_id, status)
        VALUES ($1, $2, $3)
        ON CONFLICT ON CONSTRAINT watchlist_user_movie_key
        DO UPDATE SET user_id = EXCLUDED.user_id
        RETURNING ` + entryColumns + `, (xmax = 0) AS inserted
    `
	var (
		entry    domain.WatchlistEntry
		inserted bool
	)
	err := r.pool.QueryRow(ctx, query, userID, movieID, string(status)).
		Scan(&entry.ID, &entry.UserID, &entry.MovieID, &entry.AddedAt, &entry.Status, &inserted)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.WatchlistEntry{}, false, ErrNotFound
		}
		return domain.WatchlistEntry{}, false, err
	}
	return entry, inserted, nil
}

// Remove deletes the pair, returning ErrNotFound when nothing was removed.
func (r *WatchlistRepository) Remove(ctx context.Context, userID, movieID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM watchlist WHERE user_id = $1 AND movie_id = $2`, userID, movieID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus changes the status of an existing entry.
func (r *WatchlistRepository) UpdateStatus(ctx context.Context, userID, movieID int64, status domain.WatchStatus) (domain.WatchlistEntry, error) {
	const query = `
        UPDATE watchlist AS w SET status = $3
        WHERE w.user_id = $1 AND w.movie_id = $2
        RETURNING ` + entryColumns
	var entry domain.WatchlistEntry
	err := r.pool.QueryRow(ctx, query, userID, movieID, string(status)).
		Scan(&entry.ID, &entry.UserID, &entry.MovieID, &entry.AddedAt, &entry.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.WatchlistEntry{}, ErrNotFound
		}
		return domain.WatchlistEntry{}, err
	}
	return entry, nil
}

// ListByUser returns the user's entries with their movies, most recently added first.
func (r *WatchlistRepository) ListByUser(ctx context.Context, userID int64) ([]WatchlistRow, error) {
	query := fmt.Sprintf(`
        SELECT %s, %s
        FROM watchlist w
        JOIN movies m ON m.id = w.movie_id
        LEFT JOIN genres g ON g.id = m.genre_id
        WHERE w.user_id = $1
        ORDER BY w.added_at DESC, w.id DESC
    `, entryColumns, movieColumns)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]WatchlistRow, 0)
	for rows.Next() {
		var item WatchlistRow
		targets := append([]interface{}{
			&item.Entry.ID, &item.Entry.UserID, &item.Entry.MovieID, &item.Entry.AddedAt, &item.Entry.Status,
		}, movieScanTargets(&item.Movie)...)
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Contains reports whether the movie is on the user's watchlist.
func (r *WatchlistRepository) Contains(ctx context.Context, userID, movieID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM watchlist WHERE user_id = $1 AND movie_id = $2)`,
		userID, movieID).Scan(&exists)
	return exists, err
}

// CountByUser returns the number of entries on the user's watchlist.
func (r *WatchlistRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM watchlist WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}
