package service

import (
	"context"
	"fmt"
	"time"

	"github.com/planora/planora-auth/internal/models"
	"github.com/planora/planora-auth/internal/storage"
)

// BlacklistService records tokens that must be rejected even when otherwise
// cryptographically valid: logout, rotation, breach response. Each entry
// captures the token's own expiry (unverified decode) so the sweep can evict
// it once the signature check alone would reject it anyway.
type BlacklistService struct {
	store  storage.TokenBlacklist
	tokens *TokenService
}

func NewBlacklistService(store storage.TokenBlacklist, tokens *TokenService) *BlacklistService {
	return &BlacklistService{store: store, tokens: tokens}
}

// Add is idempotent. family may be empty for access tokens; for refresh
// tokens it makes reuse detection family-exact. A token whose expiry cannot
// be determined is kept without a TTL until manually removed.
func (b *BlacklistService) Add(ctx context.Context, token, family string) error {
	var expiresAt time.Time
	if exp, ok := b.tokens.PeekExpiry(token); ok {
		expiresAt = exp
	}

	if err := b.store.Add(ctx, token, family, expiresAt); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

func (b *BlacklistService) Contains(ctx context.Context, token string) (bool, error) {
	contains, err := b.store.Contains(ctx, token)
	if err != nil {
		return false, fmt.Errorf("blacklist lookup: %w", err)
	}
	return contains, nil
}

// Family reports the token family captured when the entry was added.
func (b *BlacklistService) Family(ctx context.Context, token string) (string, bool, error) {
	family, ok, err := b.store.Family(ctx, token)
	if err != nil {
		return "", false, fmt.Errorf("blacklist family lookup: %w", err)
	}
	return family, ok, nil
}

func (b *BlacklistService) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	removed, err := b.store.SweepExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("blacklist sweep: %w", err)
	}
	return removed, nil
}

func (b *BlacklistService) Stats(ctx context.Context) (models.BlacklistStats, error) {
	return b.store.Stats(ctx)
}
