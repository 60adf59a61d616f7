package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/moviewatch/internal/domain"
)

// SessionsRepository persists login sessions.
type SessionsRepository struct {
	pool *pgxpool.Pool
}

// Create stores a session.
func (r *SessionsRepository) Create(ctx context.Context, s domain.Session) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES ($1::uuid, $2, $3, $4)`,
		s.ID, s.UserID, s.CreatedAt, s.ExpiresAt)
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	return err
}

// Get returns an unexpired session.
func (r *SessionsRepository) Get(ctx context.Context, id string) (domain.Session, error) {
	var s domain.Session
	err := r.pool.QueryRow(ctx, `
        SELECT id::text, user_id, created_at, expires_at
        FROM sessions
        WHERE id = $1::uuid AND expires_at > now()
    `, id).Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Session{}, ErrNotFound
		}
		return domain.Session{}, err
	}
	return s, nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (r *SessionsRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1::uuid`, id)
	return err
}

// DeleteExpired purges expired sessions and reports how many were removed.
func (r *SessionsRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
