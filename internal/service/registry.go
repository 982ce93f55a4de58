package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/planora/planora-auth/internal/models"
	"github.com/planora/planora-auth/internal/storage"
	"github.com/planora/planora-auth/internal/util"
)

var (
	ErrRefreshNotFound    = errors.New("refresh token not found")
	ErrTokenUserMismatch  = errors.New("token subject does not match stored session")
	ErrTokenReuseDetected = errors.New("refresh token reuse detected")
)

// SessionRegistry tracks currently valid refresh tokens, grouped into
// rotation families. At most one active refresh token exists per family:
// each rotation retires exactly one and creates exactly one.
//
// The mutex makes rotation effectively atomic — two concurrent rotations of
// the same token yield one success and one ErrRefreshNotFound, never two new
// pairs from one token. Contention is low and every operation under the lock
// is in-memory, so a coarse lock is enough.
type SessionRegistry struct {
	mu sync.Mutex

	tokens      *TokenService
	sessions    storage.SessionRepository
	blacklist   *BlacklistService
	maxLifetime time.Duration
	log         *zap.SugaredLogger
	now         func() time.Time
}

func NewSessionRegistry(
	tokens *TokenService,
	sessions storage.SessionRepository,
	blacklist *BlacklistService,
	cfg *util.RegistryConfig,
	log *zap.SugaredLogger,
) *SessionRegistry {
	return &SessionRegistry{
		tokens:      tokens,
		sessions:    sessions,
		blacklist:   blacklist,
		maxLifetime: cfg.MaxRefreshLifetime,
		log:         log,
		now:         time.Now,
	}
}

// Store records an ACTIVE refresh session. An empty family means a fresh
// login, so a new family id is minted.
func (r *SessionRegistry) Store(ctx context.Context, refreshToken, subjectID, email, family string) error {
	if family == "" {
		family = uuid.NewString()
	}

	session := models.RefreshSession{
		RefreshToken: refreshToken,
		SubjectID:    subjectID,
		Email:        email,
		Family:       family,
		IssuedAt:     r.now(),
	}
	if err := r.sessions.CreateSession(ctx, session); err != nil {
		return fmt.Errorf("store refresh session: %w", err)
	}

	return nil
}

// Validate checks the token cryptographically and against the registry.
func (r *SessionRegistry) Validate(ctx context.Context, refreshToken string) (*models.RefreshSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.validate(ctx, refreshToken)
}

func (r *SessionRegistry) validate(ctx context.Context, refreshToken string) (*models.RefreshSession, error) {
	payload, err := r.tokens.Verify(refreshToken)
	if err != nil {
		return nil, err
	}
	if payload.TokenType != models.TokenTypeRefresh {
		return nil, ErrInvalidTokenType
	}

	session, err := r.sessions.GetSession(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, ErrRefreshNotFound
		}
		return nil, fmt.Errorf("get refresh session: %w", err)
	}

	// Defense against record/token desync.
	if session.SubjectID != payload.SubjectID {
		return nil, ErrTokenUserMismatch
	}

	return session, nil
}

// Rotate exchanges a valid refresh token for a new pair within the same
// family. The old token becomes permanently unusable the instant rotation
// succeeds. This is the sole sanctioned path for extending a session.
func (r *SessionRegistry) Rotate(ctx context.Context, oldRefreshToken string) (*models.TokenPair, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, err := r.validate(ctx, oldRefreshToken)
	if err != nil {
		return nil, err
	}

	pair, err := r.tokens.IssueTokenPair(session.SubjectID, session.Email)
	if err != nil {
		return nil, fmt.Errorf("issue rotated pair: %w", err)
	}

	if _, err := r.sessions.DeleteSession(ctx, oldRefreshToken); err != nil && !errors.Is(err, storage.ErrSessionNotFound) {
		return nil, fmt.Errorf("retire old session: %w", err)
	}
	if err := r.Store(ctx, pair.RefreshToken, session.SubjectID, session.Email, session.Family); err != nil {
		return nil, err
	}
	if err := r.blacklist.Add(ctx, oldRefreshToken, session.Family); err != nil {
		return nil, err
	}

	r.log.Debugw("refresh token rotated", "subjectID", session.SubjectID, "family", session.Family)

	return pair, nil
}

// DetectReuse reports whether the token was already rotated or revoked yet
// is being presented again — the canonical theft signal. On detection the
// whole family is invalidated; the family is read off the blacklist entry
// itself, so the lookup is exact even when the original record is long gone.
func (r *SessionRegistry) DetectReuse(ctx context.Context, refreshToken string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	blacklisted, err := r.blacklist.Contains(ctx, refreshToken)
	if err != nil {
		return false, err
	}
	if !blacklisted {
		return false, nil
	}

	family, ok, err := r.blacklist.Family(ctx, refreshToken)
	if err != nil {
		return true, err
	}
	if ok && family != "" {
		if err := r.invalidateFamily(ctx, family); err != nil {
			return true, err
		}
		r.log.Warnw("refresh token reuse detected, family invalidated", "family", family)
		return true, nil
	}

	// No family on the entry (e.g. a token blacklisted before issuance was
	// tracked here). Fall back to locking out every session of the decoded
	// subject.
	if payload, ok := r.tokens.peek(refreshToken); ok && payload.SubjectID != "" {
		if err := r.invalidateAllForUser(ctx, payload.SubjectID); err != nil {
			return true, err
		}
		r.log.Warnw("refresh token reuse detected, all subject sessions invalidated", "subjectID", payload.SubjectID)
	}

	return true, nil
}

// InvalidateFamily blacklists and deletes every active record in the family.
func (r *SessionRegistry) InvalidateFamily(ctx context.Context, family string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.invalidateFamily(ctx, family)
}

func (r *SessionRegistry) invalidateFamily(ctx context.Context, family string) error {
	deleted, err := r.sessions.DeleteFamilySessions(ctx, family)
	if err != nil {
		return fmt.Errorf("delete family sessions: %w", err)
	}
	return r.blacklistSessions(ctx, deleted)
}

// InvalidateAllForUser is logout-all-devices: every active session for the
// subject is retired regardless of family.
func (r *SessionRegistry) InvalidateAllForUser(ctx context.Context, subjectID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.invalidateAllForUser(ctx, subjectID)
}

func (r *SessionRegistry) invalidateAllForUser(ctx context.Context, subjectID string) error {
	deleted, err := r.sessions.DeleteAllUserSessions(ctx, subjectID)
	if err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return r.blacklistSessions(ctx, deleted)
}

// InvalidateOne is single-session logout. The token is blacklisted even when
// no record remains, so logout stays idempotent.
func (r *SessionRegistry) InvalidateOne(ctx context.Context, refreshToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	family := ""
	session, err := r.sessions.DeleteSession(ctx, refreshToken)
	switch {
	case err == nil:
		family = session.Family
	case errors.Is(err, storage.ErrSessionNotFound):
	default:
		return fmt.Errorf("delete session: %w", err)
	}

	return r.blacklist.Add(ctx, refreshToken, family)
}

// SweepExpired deletes records older than the max refresh lifetime. Age is
// computed from issuedAt, not the token's own expiry, so registry cleanup is
// independent of codec configuration drift.
func (r *SessionRegistry) SweepExpired(ctx context.Context) (int, error) {
	cutoff := r.now().Add(-r.maxLifetime)
	removed, err := r.sessions.DeleteSessionsOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep refresh sessions: %w", err)
	}
	return removed, nil
}

func (r *SessionRegistry) blacklistSessions(ctx context.Context, sessions []models.RefreshSession) error {
	for _, session := range sessions {
		if err := r.blacklist.Add(ctx, session.RefreshToken, session.Family); err != nil {
			return err
		}
	}
	return nil
}
