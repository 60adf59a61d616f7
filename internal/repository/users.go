package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/moviewatch/internal/domain"
)

// UsersRepository persists accounts.
type UsersRepository struct {
	pool *pgxpool.Pool
}

const userColumns = `id, username, email, password_hash, created_at`

// Create inserts a user. Unique violations map to ErrDuplicateUsername or
// ErrDuplicateEmail depending on the constraint hit.
func (r *UsersRepository) Create(ctx context.Context, username, email, passwordHash string) (domain.User, error) {
	row := r.pool.QueryRow(ctx, `
        INSERT INTO users (username, email, password_hash)
        VALUES ($1, $2, $3)
        RETURNING `+userColumns, username, email, passwordHash)
	user, err := scanUser(row)
	if err != nil {
		if pgErr := pgError(err); pgErr != nil && pgErr.Code == pgUniqueViolation {
			switch pgErr.ConstraintName {
			case "users_email_key":
				return domain.User{}, ErrDuplicateEmail
			default:
				return domain.User{}, ErrDuplicateUsername
			}
		}
		return domain.User{}, err
	}
	return user, nil
}

// GetByID fetches a user by id.
func (r *UsersRepository) GetByID(ctx context.Context, id int64) (domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByUsername fetches a user by exact username.
func (r *UsersRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UsersRepository) getOne(ctx context.Context, query string, arg interface{}) (domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return domain.User{}, err
	}
	return u, nil
}
