package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/moviewatch/internal/domain"
)

// MoviesRepository provides persistence helpers for movie entities.
type MoviesRepository struct {
	pool *pgxpool.Pool
}

// movieColumns expects the movie table aliased as m and genres as g.
const movieColumns = `
    m.id,
    m.tmdb_id,
    m.title,
    m.release_date,
    m.overview,
    m.poster_path,
    m.genre_id,
    g.name,
    m.popular,
    m.created_at,
    m.updated_at
`

// MovieUpsertParams bundles the fields written for a movie.
type MovieUpsertParams struct {
	TMDBID      int64
	Title       string
	ReleaseDate *time.Time
	Overview    string
	PosterPath  *string
	GenreID     *int64
	Popular     bool
}

// UpsertFromCatalog inserts a movie or refreshes every mutable field of the
// existing row with the same tmdb_id. The boolean reports whether the row was
// newly created.
func (r *MoviesRepository) UpsertFromCatalog(ctx context.Context, params MovieUpsertParams) (domain.Movie, bool, error) {
	query := fmt.Sprintf(`
        WITH m AS (
            INSERT INTO movies (tmdb_id, title, release_date, overview, poster_path, genre_id, popular)
            VALUES ($1,$2,$3,$4,$5,$6,$7)
            ON CONFLICT (tmdb_id)
            DO UPDATE SET title = EXCLUDED.title,
                          release_date = EXCLUDED.release_date,
                          overview = EXCLUDED.overview,
                          poster_path = EXCLUDED.poster_path,
                          genre_id = EXCLUDED.genre_id,
                          popular = EXCLUDED.popular,
                          updated_at = now()
            RETURNING *, (xmax = 0) AS inserted
        )
        SELECT %s, m.inserted
        FROM m LEFT JOIN genres g ON g.id = m.genre_id
    `, movieColumns)

	row := r.pool.QueryRow(ctx, query, params.TMDBID, params.Title, params.ReleaseDate, params.Overview, params.PosterPath, params.GenreID, params.Popular)
	return scanMovieInserted(row)
}

// EnsureByExternalID returns the movie with the given tmdb_id, creating it from
// params when absent. An existing row is never modified.
func (r *MoviesRepository) EnsureByExternalID(ctx context.Context, params MovieUpsertParams) (domain.Movie, bool, error) {
	query := fmt.Sprintf(`
        WITH m AS (
            INSERT INTO movies (tmdb_id, title, release_date, overview, poster_path, genre_id, popular)
            VALUES ($1,$2,$3,$4,$5,$6,$7)
            ON CONFLICT (tmdb_id)
            DO UPDATE SET tmdb_id = EXCLUDED.tmdb_id
            RETURNING *, (xmax = 0) AS inserted
        )
        SELECT %s, m.inserted
        FROM m LEFT JOIN genres g ON g.id = m.genre_id
    `, movieColumns)

	row := r.pool.QueryRow(ctx, query, params.TMDBID, params.Title, params.ReleaseDate, params.Overview, params.PosterPath, params.GenreID, params.Popular)
	movie, inserted, err := scanMovieInserted(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Movie{}, false, ErrNotFound
		}
		return domain.Movie{}, false, err
	}
	return movie, inserted, nil
}

// GetByID fetches a movie by its local identifier.
func (r *MoviesRepository) GetByID(ctx context.Context, id int64) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies m LEFT JOIN genres g ON g.id = m.genre_id WHERE m.id = $1`, movieColumns)
	return r.getOne(ctx, query, id)
}

// GetByExternalID fetches a movie by its catalog identifier.
func (r *MoviesRepository) GetByExternalID(ctx context.Context, tmdbID int64) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies m LEFT JOIN genres g ON g.id = m.genre_id WHERE m.tmdb_id = $1`, movieColumns)
	return r.getOne(ctx, query, tmdbID)
}

func (r *MoviesRepository) getOne(ctx context.Context, query string, arg interface{}) (domain.Movie, error) {
	movie, err := scanMovie(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, err
	}
	return movie, nil
}

// List returns every stored movie, popular titles first.
func (r *MoviesRepository) List(ctx context.Context) ([]domain.Movie, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM movies m LEFT JOIN genres g ON g.id = m.genre_id
        ORDER BY m.popular DESC, m.id
    `, movieColumns)
	return r.queryMany(ctx, query)
}

// ListByGenre returns movies associated with a genre.
func (r *MoviesRepository) ListByGenre(ctx context.Context, genreID int64) ([]domain.Movie, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM movies m LEFT JOIN genres g ON g.id = m.genre_id
        WHERE m.genre_id = $1
        ORDER BY m.id
    `, movieColumns)
	return r.queryMany(ctx, query, genreID)
}

// SearchByTitle performs a case-insensitive substring match on the title. The
// query is matched literally; LIKE wildcards in it carry no meaning.
func (r *MoviesRepository) SearchByTitle(ctx context.Context, q string) ([]domain.Movie, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM movies m LEFT JOIN genres g ON g.id = m.genre_id
        WHERE m.title ILIKE $1
        ORDER BY m.id
    `, movieColumns)
	return r.queryMany(ctx, query, ContainsPattern(q))
}

// ContainsPattern builds an ILIKE pattern that matches q anywhere, escaping
// the LIKE metacharacters so they are compared literally.
func ContainsPattern(q string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(q)
	return "%" + escaped + "%"
}

func (r *MoviesRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]domain.Movie, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Movie, 0)
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func movieScanTargets(movie *domain.Movie) []interface{} {
	return []interface{}{
		&movie.ID,
		&movie.TMDBID,
		&movie.Title,
		&movie.ReleaseDate,
		&movie.Overview,
		&movie.PosterPath,
		&movie.GenreID,
		&movie.GenreName,
		&movie.Popular,
		&movie.CreatedAt,
		&movie.UpdatedAt,
	}
}

func scanMovie(row pgx.Row) (domain.Movie, error) {
	var movie domain.Movie
	if err := row.Scan(movieScanTargets(&movie)...); err != nil {
		return domain.Movie{}, err
	}
	return movie, nil
}

func scanMovieInserted(row pgx.Row) (domain.Movie, bool, error) {
	var (
		movie    domain.Movie
		inserted bool
	)
	targets := append(movieScanTargets(&movie), &inserted)
	if err := row.Scan(targets...); err != nil {
		return domain.Movie{}, false, err
	}
	return movie, inserted, nil
}
