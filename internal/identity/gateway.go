// Package identity registers users, checks credentials and binds browser
// sessions to users.
package identity

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Clark-Hu/moviewatch/internal/apperr"
	"github.com/Clark-Hu/moviewatch/internal/domain"
	"github.com/Clark-Hu/moviewatch/internal/logger"
	"github.com/Clark-Hu/moviewatch/internal/repository"
)

const (
	// SessionCookieName is the cookie carrying the session id.
	SessionCookieName = "session_id"
	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 8

	// bcrypt ignores input past 72 bytes and the x/crypto implementation
	// rejects it outright.
	maxPasswordBytes = 72
	maxFieldLength   = 100
	badCredentials = "Invalid username or password."
)

// UserStore is the account persistence.
type UserStore interface {
	Create(ctx context.Context, username, email, passwordHash string) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
}

// Options configures the Gateway.
type Options struct {
	SessionTTL   time.Duration
	SecureCookie bool
	BcryptCost   int
	Logger       *logger.Logger
}

// Gateway resolves the caller of each request and manages accounts.
type Gateway struct {
	users    UserStore
	sessions SessionStore
	ttl      time.Duration
	secure   bool
	cost     int
	logger   *logger.Logger
	now      func() time.Time
}

// NewGateway builds a Gateway, filling in defaults for zero Options.
func NewGateway(users UserStore, sessions SessionStore, opts Options) *Gateway {
	g := &Gateway{
		users:    users,
		sessions: sessions,
		ttl:      opts.SessionTTL,
		secure:   opts.SecureCookie,
		cost:     opts.BcryptCost,
		logger:   opts.Logger,
		now:      time.Now,
	}
	if g.ttl <= 0 {
		g.ttl = 24 * time.Hour
	}
	if g.cost == 0 {
		g.cost = bcrypt.DefaultCost
	}
	if g.logger == nil {
		g.logger = logger.Nop()
	}
	return g
}

// Register creates an account after validating the input.
func (g *Gateway) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	const op = "identity.Register"
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || email == "" || password == "" {
		return domain.User{}, apperr.Validation(op, "Username, email and password are required.")
	}
	if len(username) > maxFieldLength || len(email) > maxFieldLength {
		return domain.User{}, apperr.Validation(op, "Username and email must be at most 100 characters.")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return domain.User{}, apperr.Validation(op, "Please enter a valid email address.")
	}
	if len(password) < MinPasswordLength {
		return domain.User{}, apperr.Validation(op, "Password must be at least 8 characters.")
	}
	if len(password) > maxPasswordBytes {
		return domain.User{}, apperr.Validation(op, "Password must be at most 72 bytes.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), g.cost)
	if err != nil {
		return domain.User{}, apperr.E(apperr.KindInternal, op, "", err)
	}

	user, err := g.users.Create(ctx, username, email, string(hash))
	switch {
	case err == nil:
		g.logger.Info("identity: user registered", "user_id", user.ID, "username", user.Username)
		return user, nil
	case errors.Is(err, repository.ErrDuplicateUsername):
		return domain.User{}, apperr.Conflict(op, "Username already exists.", err)
	case errors.Is(err, repository.ErrDuplicateEmail):
		return domain.User{}, apperr.Conflict(op, "Email already registered.", err)
	default:
		return domain.User{}, apperr.Persistence(op, err)
	}
}

// Authenticate checks a username and password.
func (g *Gateway) Authenticate(ctx context.Context, username, password string) (domain.Identity, error) {
	const op = "identity.Authenticate"
	user, err := g.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Identity{}, apperr.Unauthorized(op, badCredentials)
		}
		return domain.Identity{}, apperr.Persistence(op, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.Identity{}, apperr.Unauthorized(op, badCredentials)
	}
	return domain.Identity{UserID: user.ID, Username: user.Username}, nil
}

// Login starts a session for id and sets the session cookie.
func (g *Gateway) Login(ctx context.Context, w http.ResponseWriter, id domain.Identity) error {
	now := g.now()
	session := domain.Session{
		ID:        uuid.NewString(),
		UserID:    id.UserID,
		CreatedAt: now,
		ExpiresAt: now.Add(g.ttl),
	}
	if err := g.sessions.Create(ctx, session); err != nil {
		return apperr.Persistence("identity.Login", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(g.ttl.Seconds()),
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Logout ends the request's session, if any, and clears the cookie.
func (g *Gateway) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if err := g.sessions.Delete(ctx, cookie.Value); err != nil {
			return apperr.Persistence("identity.Logout", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// CurrentUser resolves the caller from the session cookie.
func (g *Gateway) CurrentUser(r *http.Request) (domain.Identity, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return domain.Identity{}, false
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return domain.Identity{}, false
	}
	session, err := g.sessions.Get(r.Context(), cookie.Value)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			g.logger.Warn("identity: session lookup failed", "error", err)
		}
		return domain.Identity{}, false
	}
	user, err := g.users.GetByID(r.Context(), session.UserID)
	if err != nil {
		return domain.Identity{}, false
	}
	return domain.Identity{UserID: user.ID, Username: user.Username}, true
}

// User loads the full account, for the profile page.
func (g *Gateway) User(ctx context.Context, id int64) (domain.User, error) {
	user, err := g.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, apperr.NotFound("identity.User", "User not found.")
		}
		return domain.User{}, apperr.Persistence("identity.User", err)
	}
	return user, nil
}
