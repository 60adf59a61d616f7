package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Clark-Hu/moviewatch/internal/domain"
	"github.com/Clark-Hu/moviewatch/internal/repository"
)

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = errors.New("identity: session not found")

// SessionStore persists sessions. Get must not return expired sessions.
type SessionStore interface {
	Create(ctx context.Context, s domain.Session) error
	Get(ctx context.Context, id string) (domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// ============================================================================
// In-memory store (development and tests)
// ============================================================================

// MemorySessionStore keeps sessions in process memory.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	now      func() time.Time
}

// NewMemorySessionStore returns an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domain.Session), now: time.Now}
}

// Create stores s, replacing any session with the same id.
func (m *MemorySessionStore) Create(_ context.Context, s domain.Session) error {
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return nil
}

// Get returns the session unless it is missing or expired.
func (m *MemorySessionStore) Get(_ context.Context, id string) (domain.Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || s.Expired(m.now()) {
		return domain.Session{}, ErrSessionNotFound
	}
	return s, nil
}

// Delete removes the session; unknown ids are ignored.
func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// ============================================================================
// PostgreSQL store
// ============================================================================

// PGSessionStore keeps sessions in the sessions table.
type PGSessionStore struct {
	repo *repository.SessionsRepository
}

// NewPGSessionStore wraps the sessions repository.
func NewPGSessionStore(repo *repository.SessionsRepository) *PGSessionStore {
	return &PGSessionStore{repo: repo}
}

func (p *PGSessionStore) Create(ctx context.Context, s domain.Session) error {
	return p.repo.Create(ctx, s)
}

func (p *PGSessionStore) Get(ctx context.Context, id string) (domain.Session, error) {
	s, err := p.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Session{}, ErrSessionNotFound
	}
	return s, err
}

func (p *PGSessionStore) Delete(ctx context.Context, id string) error {
	return p.repo.Delete(ctx, id)
}

// ============================================================================
// Redis store
// ============================================================================

const redisKeyPrefix = "session:"

// RedisSessionStore keeps sessions as JSON values whose TTL matches the
// session expiry.
type RedisSessionStore struct {
	rdb *goredis.Client
	now func() time.Time
}

// RedisOptions configures NewRedisSessionStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisSessionStore connects and pings the server.
func NewRedisSessionStore(ctx context.Context, opts RedisOptions) (*RedisSessionStore, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisSessionStore{rdb: rdb, now: time.Now}, nil
}

type redisSession struct {
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (r *RedisSessionStore) Create(ctx context.Context, s domain.Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", s.ID)
	}
	raw, err := json.Marshal(redisSession{UserID: s.UserID, CreatedAt: s.CreatedAt, ExpiresAt: s.ExpiresAt})
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, redisKeyPrefix+s.ID, raw, ttl).Err()
}

func (r *RedisSessionStore) Get(ctx context.Context, id string) (domain.Session, error) {
	raw, err := r.rdb.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return domain.Session{}, ErrSessionNotFound
		}
		return domain.Session{}, err
	}
	var stored redisSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		return domain.Session{}, fmt.Errorf("decode session: %w", err)
	}
	s := domain.Session{ID: id, UserID: stored.UserID, CreatedAt: stored.CreatedAt, ExpiresAt: stored.ExpiresAt}
	if s.Expired(r.now()) {
		return domain.Session{}, ErrSessionNotFound
	}
	return s, nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, redisKeyPrefix+id).Err()
}

// Close releases the redis connection pool.
func (r *RedisSessionStore) Close() error {
	return r.rdb.Close()
}
