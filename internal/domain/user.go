package domain

import "time"

// User is a registered account. PasswordHash is a bcrypt hash.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Identity is the authenticated caller passed explicitly into service operations.
type Identity struct {
	UserID   int64
	Username string
}

// Session binds a browser cookie to a user.
type Session struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
