package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/moviewatch/internal/store"
)

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrNotOwner indicates a row exists but belongs to another user.
	ErrNotOwner = errors.New("repository: not owner")
	// ErrDuplicateUsername and ErrDuplicateEmail report unique-constraint hits on users.
	ErrDuplicateUsername = errors.New("repository: username taken")
	ErrDuplicateEmail    = errors.New("repository: email taken")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Movies    *MoviesRepository
	Genres    *GenresRepository
	Users     *UsersRepository
	Watchlist *WatchlistRepository
	Reviews   *ReviewsRepository
	Sessions  *SessionsRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Movies:    &MoviesRepository{pool: pool},
		Genres:    &GenresRepository{pool: pool},
		Users:     &UsersRepository{pool: pool},
		Watchlist: &WatchlistRepository{pool: pool},
		Reviews:   &ReviewsRepository{pool: pool},
		Sessions:  &SessionsRepository{pool: pool},
	}
}

func pgError(err error) *pgconn.PgError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	pgErr := pgError(err)
	return pgErr != nil && pgErr.Code == pgForeignKeyViolation
}
