package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/planora/planora-auth/internal/models"
)

const (
	keyPrefix = "blacklist:"

	// Entries whose expiry already passed still get a short grace TTL so a
	// replayed token is recognized during clock skew.
	minEntryTTL = time.Minute
)

// TokenBlacklist is the deny-list backed by Redis. Redis evicts entries by
// TTL on its own, so SweepExpired is a no-op here.
type TokenBlacklist struct {
	client *redis.Client
}

func NewTokenBlacklist(client *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{client: client}
}

func (b *TokenBlacklist) Add(ctx context.Context, token, family string, expiresAt time.Time) error {
	var ttl time.Duration
	if !expiresAt.IsZero() {
		ttl = time.Until(expiresAt)
		if ttl < minEntryTTL {
			ttl = minEntryTTL
		}
	}
	return b.client.Set(ctx, keyPrefix+token, family, ttl).Err()
}

func (b *TokenBlacklist) Contains(ctx context.Context, token string) (bool, error) {
	_, err := b.client.Get(ctx, keyPrefix+token).Result()
	if err == redis.Nil {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

func (b *TokenBlacklist) Family(ctx context.Context, token string) (string, bool, error) {
	family, err := b.client.Get(ctx, keyPrefix+token).Result()
	if err == redis.Nil {
		return "", false, nil
	} else if err != nil {
		return "", false, err
	}
	return family, true, nil
}

func (b *TokenBlacklist) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

func (b *TokenBlacklist) Stats(ctx context.Context) (models.BlacklistStats, error) {
	var stats models.BlacklistStats

	iter := b.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		stats.TotalEntries++
	}
	if err := iter.Err(); err != nil {
		return models.BlacklistStats{}, err
	}

	return stats, nil
}
