package storage

import (
	"context"
	"errors"
	"time"

	"github.com/planora/planora-auth/internal/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already taken")
)

// SessionRepository holds active refresh sessions keyed by the refresh token
// string. Delete* methods return the removed records so the caller can
// blacklist the corresponding tokens.
type SessionRepository interface {
	CreateSession(ctx context.Context, session models.RefreshSession) error
	GetSession(ctx context.Context, refreshToken string) (*models.RefreshSession, error)
	DeleteSession(ctx context.Context, refreshToken string) (*models.RefreshSession, error)
	DeleteFamilySessions(ctx context.Context, family string) ([]models.RefreshSession, error)
	DeleteAllUserSessions(ctx context.Context, subjectID string) ([]models.RefreshSession, error)
	DeleteSessionsOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// TokenBlacklist is the deny-list of tokens rejected regardless of
// cryptographic validity. Entries carry the token family so a replayed
// refresh token can be traced back to its lineage exactly.
type TokenBlacklist interface {
	Add(ctx context.Context, token, family string, expiresAt time.Time) error
	Contains(ctx context.Context, token string) (bool, error)
	Family(ctx context.Context, token string) (string, bool, error)
	SweepExpired(ctx context.Context, now time.Time) (int, error)
	Stats(ctx context.Context) (models.BlacklistStats, error)
}

// UserRepository persists identity rows.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
