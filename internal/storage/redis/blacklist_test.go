package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBlacklist(t *testing.T) (*TokenBlacklist, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewTokenBlacklist(client), mr
}

func TestRedisBlacklistAddContains(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBlacklist(t)

	require.NoError(t, b.Add(ctx, "tok", "fam-1", time.Now().Add(time.Hour)))
	require.NoError(t, b.Add(ctx, "tok", "fam-1", time.Now().Add(time.Hour)))

	contains, err := b.Contains(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, contains)

	contains, err = b.Contains(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, contains)
}

func TestRedisBlacklistFamily(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBlacklist(t)

	require.NoError(t, b.Add(ctx, "tok", "fam-1", time.Now().Add(time.Hour)))

	family, ok, err := b.Family(ctx, "tok")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "fam-1", family)

	_, ok, err = b.Family(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisBlacklistEntriesExpire(t *testing.T) {
	ctx := context.Background()
	b, mr := newTestBlacklist(t)

	require.NoError(t, b.Add(ctx, "tok", "fam-1", time.Now().Add(2*time.Minute)))

	mr.FastForward(3 * time.Minute)

	contains, err := b.Contains(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, contains)
}

func TestRedisBlacklistPastExpiryGetsGraceTTL(t *testing.T) {
	ctx := context.Background()
	b, mr := newTestBlacklist(t)

	// Already expired tokens stay listed briefly to cover clock skew.
	require.NoError(t, b.Add(ctx, "tok", "fam-1", time.Now().Add(-time.Hour)))

	contains, err := b.Contains(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, contains)

	mr.FastForward(2 * time.Minute)

	contains, err = b.Contains(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, contains)
}

func TestRedisBlacklistStats(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBlacklist(t)

	require.NoError(t, b.Add(ctx, "tok1", "f1", time.Now().Add(time.Hour)))
	require.NoError(t, b.Add(ctx, "tok2", "f2", time.Now().Add(time.Hour)))

	stats, err := b.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Zero(t, stats.ExpiredButNotSwept)
}
