package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/moviewatch/internal/domain"
)

// GenresRepository persists catalog genres keyed by their catalog id.
type GenresRepository struct {
	pool *pgxpool.Pool
}

// Upsert stores the genre name, replacing any previous name for the same id.
func (r *GenresRepository) Upsert(ctx context.Context, id int64, name string) (domain.Genre, bool, error) {
	const query = `
        INSERT INTO genres (id, name)
        VALUES ($1, $2)
        ON CONFLICT (id)
        DO UPDATE SET name = EXCLUDED.name, updated_at = now()
        RETURNING id, name, updated_at, (xmax = 0) AS inserted
    `
	var (
		genre    domain.Genre
		inserted bool
	)
	if err := r.pool.QueryRow(ctx, query, id, name).Scan(&genre.ID, &genre.Name, &genre.UpdatedAt, &inserted); err != nil {
		return domain.Genre{}, false, err
	}
	return genre, inserted, nil
}

// EnsureExists inserts a placeholder genre for id if none exists yet. Existing
// names are left untouched. Reports whether a row was created.
func (r *GenresRepository) EnsureExists(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO genres (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		id, domain.UnknownGenreName)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Get fetches one genre.
func (r *GenresRepository) Get(ctx context.Context, id int64) (domain.Genre, error) {
	var genre domain.Genre
	err := r.pool.QueryRow(ctx, `SELECT id, name, updated_at FROM genres WHERE id = $1`, id).
		Scan(&genre.ID, &genre.Name, &genre.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Genre{}, ErrNotFound
		}
		return domain.Genre{}, err
	}
	return genre, nil
}

// ListWithCounts returns all genres by name along with how many movies reference each.
func (r *GenresRepository) ListWithCounts(ctx context.Context) ([]domain.GenreSummary, error) {
	const query = `
        SELECT g.id, g.name, g.updated_at, COUNT(m.id)
        FROM genres g
        LEFT JOIN movies m ON m.genre_id = g.id
        GROUP BY g.id
        ORDER BY g.name, g.id
    `
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.GenreSummary, 0)
	for rows.Next() {
		var s domain.GenreSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.UpdatedAt, &s.MovieCount); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}
