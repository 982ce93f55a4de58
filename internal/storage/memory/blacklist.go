package memory

import (
	"context"
	"sync"
	"time"

	"github.com/planora/planora-auth/internal/models"
)

type blacklistEntry struct {
	family    string
	expiresAt time.Time
}

// InMemoryTokenBlacklist is a mutex-guarded deny-list. Entries with a zero
// expiry (the token's expiry could not be determined) are never evicted by
// the sweep.
type InMemoryTokenBlacklist struct {
	mu      sync.RWMutex
	entries map[string]blacklistEntry
}

func NewTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		entries: make(map[string]blacklistEntry),
	}
}

func (b *InMemoryTokenBlacklist) Add(ctx context.Context, token, family string, expiresAt time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Idempotent: re-adding keeps a single logical entry.
	b.entries[token] = blacklistEntry{family: family, expiresAt: expiresAt}

	return nil
}

func (b *InMemoryTokenBlacklist) Contains(ctx context.Context, token string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, ok := b.entries[token]
	return ok, nil
}

func (b *InMemoryTokenBlacklist) Family(ctx context.Context, token string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entry, ok := b.entries[token]
	if !ok {
		return "", false, nil
	}
	return entry.family, true, nil
}

func (b *InMemoryTokenBlacklist) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for token, entry := range b.entries {
		if !entry.expiresAt.IsZero() && entry.expiresAt.Before(now) {
			delete(b.entries, token)
			removed++
		}
	}

	return removed, nil
}

func (b *InMemoryTokenBlacklist) Stats(ctx context.Context) (models.BlacklistStats, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := models.BlacklistStats{TotalEntries: len(b.entries)}
	now := time.Now()
	for _, entry := range b.entries {
		if !entry.expiresAt.IsZero() && entry.expiresAt.Before(now) {
			stats.ExpiredButNotSwept++
		}
	}

	return stats, nil
}
