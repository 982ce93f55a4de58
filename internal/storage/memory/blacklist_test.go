package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlacklistAddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	b := NewTokenBlacklist()

	exp := time.Now().Add(time.Hour)
	require.NoError(t, b.Add(ctx, "tok", "fam", exp))
	require.NoError(t, b.Add(ctx, "tok", "fam", exp))

	contains, err := b.Contains(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, contains)

	stats, err := b.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalEntries)
}

func TestBlacklistFamily(t *testing.T) {
	ctx := context.Background()
	b := NewTokenBlacklist()

	require.NoError(t, b.Add(ctx, "tok", "fam-1", time.Now().Add(time.Hour)))

	family, ok, err := b.Family(ctx, "tok")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "fam-1", family)

	_, ok, err = b.Family(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBlacklistSweep(t *testing.T) {
	ctx := context.Background()
	b := NewTokenBlacklist()

	now := time.Now()
	require.NoError(t, b.Add(ctx, "expired", "f1", now.Add(-time.Minute)))
	require.NoError(t, b.Add(ctx, "live", "f2", now.Add(time.Hour)))
	require.NoError(t, b.Add(ctx, "no-expiry", "f3", time.Time{}))

	removed, err := b.SweepExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	contains, _ := b.Contains(ctx, "expired")
	assert.False(t, contains)
	contains, _ = b.Contains(ctx, "live")
	assert.True(t, contains)
	// Entries without a determinable expiry survive the sweep.
	contains, _ = b.Contains(ctx, "no-expiry")
	assert.True(t, contains)
}

func TestBlacklistStatsCountsExpired(t *testing.T) {
	ctx := context.Background()
	b := NewTokenBlacklist()

	require.NoError(t, b.Add(ctx, "expired", "f1", time.Now().Add(-time.Minute)))
	require.NoError(t, b.Add(ctx, "live", "f2", time.Now().Add(time.Hour)))

	stats, err := b.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, 1, stats.ExpiredButNotSwept)
}
