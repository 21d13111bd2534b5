package domain

import (
	"context"
	"time"
)

// User owns measurements and sessions. Deleting a user deletes both.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// HasPassword reports whether the account can sign in with a password.
// Accounts provisioned by SSO or a proxy header have no local password.
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != ""
}

// Session ties an opaque cookie token to the user whose measurements it may
// read and write.
type Session struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewSession returns a session for userID issued at now and valid for ttl.
func NewSession(userID int64, token string, now time.Time, ttl time.Duration) Session {
	return Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// UserRepository is the port for accounts. Lookups of a missing user return
// (nil, nil).
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, username, passwordHash string) (*User, error)
	Count(ctx context.Context) (int, error)
	// Delete removes the user with its measurements and sessions. It
	// reports whether a user was removed.
	Delete(ctx context.Context, id int64) (bool, error)
}

// SessionRepository is the port for login sessions.
type SessionRepository interface {
	Create(ctx context.Context, s Session) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	// DeleteExpired removes sessions expired at now and returns how many
	// were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
