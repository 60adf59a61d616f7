package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Clark-Hu/moviewatch/internal/apperr"
	"github.com/Clark-Hu/moviewatch/internal/domain"
	"github.com/Clark-Hu/moviewatch/internal/repository"
)

type memoryUsers struct {
	mu    sync.Mutex
	users []domain.User
}

func (m *memoryUsers) Create(_ context.Context, username, email, hash string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return domain.User{}, repository.ErrDuplicateUsername
		}
		if u.Email == email {
			return domain.User{}, repository.ErrDuplicateEmail
		}
	}
	u := domain.User{ID: int64(len(m.users) + 1), Username: username, Email: email, PasswordHash: hash, CreatedAt: time.Now()}
	m.users = append(m.users, u)
	return u, nil
}

func (m *memoryUsers) GetByID(_ context.Context, id int64) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, repository.ErrNotFound
}

func (m *memoryUsers) GetByUsername(_ context.Context, username string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, repository.ErrNotFound
}

func newGateway() (*Gateway, *memoryUsers, *MemorySessionStore) {
	users := &memoryUsers{}
	sessions := NewMemorySessionStore()
	return NewGateway(users, sessions, Options{SessionTTL: time.Hour, BcryptCost: bcrypt.MinCost}), users, sessions
}

func TestRegister(t *testing.T) {
	gw, users, _ := newGateway()
	ctx := context.Background()

	user, err := gw.Register(ctx, " neo ", "neo@example.com", "followthewhiterabbit")
	require.NoError(t, err)
	assert.Equal(t, "neo", user.Username)
	assert.NotEqual(t, "followthewhiterabbit", users.users[0].PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users.users[0].PasswordHash), []byte("followthewhiterabbit")))

	tests := []struct {
		name                      string
		username, email, password string
		kind                      apperr.Kind
	}{
		{"missing fields", "", "a@example.com", "password1", apperr.KindValidation},
		{"bad email", "trinity", "not-an-email", "password1", apperr.KindValidation},
		{"display name email", "trinity", "Trinity <t@example.com>", "password1", apperr.KindValidation},
		{"short password", "trinity", "t@example.com", "short", apperr.KindValidation},
		{"password over bcrypt limit", "trinity", "t@example.com", strings.Repeat("p", 80), apperr.KindValidation},
		{"duplicate username", "neo", "other@example.com", "password1", apperr.KindConflict},
		{"duplicate email", "thomas", "neo@example.com", "password1", apperr.KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gw.Register(ctx, tt.username, tt.email, tt.password)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
	assert.Len(t, users.users, 1)
}

func TestAuthenticate(t *testing.T) {
	gw, _, _ := newGateway()
	ctx := context.Background()
	_, err := gw.Register(ctx, "neo", "neo@example.com", "followthewhiterabbit")
	require.NoError(t, err)

	id, err := gw.Authenticate(ctx, "neo", "followthewhiterabbit")
	require.NoError(t, err)
	assert.Equal(t, "neo", id.Username)

	_, wrongPass := gw.Authenticate(ctx, "neo", "bluepill")
	_, unknown := gw.Authenticate(ctx, "smith", "followthewhiterabbit")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(wrongPass))
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(unknown))
	assert.Equal(t, apperr.Message(wrongPass), apperr.Message(unknown), "failures must be indistinguishable")
}

func TestLoginCurrentUserLogout(t *testing.T) {
	gw, _, sessions := newGateway()
	ctx := context.Background()
	_, err := gw.Register(ctx, "neo", "neo@example.com", "followthewhiterabbit")
	require.NoError(t, err)
	id, err := gw.Authenticate(ctx, "neo", "followthewhiterabbit")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, gw.Login(ctx, rec, id))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, SessionCookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	got, ok := gw.CurrentUser(req)
	require.True(t, ok)
	assert.Equal(t, id, got)

	out := httptest.NewRecorder()
	require.NoError(t, gw.Logout(ctx, out, req))
	assert.Equal(t, -1, out.Result().Cookies()[0].MaxAge)
	_, err = sessions.Get(ctx, cookie.Value)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, ok = gw.CurrentUser(req)
	assert.False(t, ok)
}

func TestCurrentUserRejectsGarbageAndExpired(t *testing.T) {
	gw, _, sessions := newGateway()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := gw.CurrentUser(req)
	assert.False(t, ok, "no cookie")

	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "not-a-uuid"})
	_, ok = gw.CurrentUser(req)
	assert.False(t, ok, "malformed id")

	expired := domain.Session{ID: "8d3c1f5e-7f2a-4c55-9b0e-2f7a4d1c9e11", UserID: 1, ExpiresAt: time.Now().Add(-time.Minute)}
	require.NoError(t, sessions.Create(context.Background(), expired))
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: expired.ID})
	_, ok = gw.CurrentUser(req)
	assert.False(t, ok, "expired session")
}
