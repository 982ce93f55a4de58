package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"

	"github.com/planora/planora-auth/internal/util"
)

func TestSweeperEvictsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	registry, tokens, blacklist := newTestRegistry(t)

	// A token already past its expiry, straight onto the deny-list.
	tokens.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, err := tokens.IssueAccessToken("u1", "u1@x.com")
	require.NoError(t, err)
	tokens.now = time.Now
	require.NoError(t, blacklist.Add(ctx, expired, ""))

	live, err := tokens.IssueAccessToken("u1", "u1@x.com")
	require.NoError(t, err)
	require.NoError(t, blacklist.Add(ctx, live, ""))

	sweeper := NewSweeper(registry, blacklist, &util.SweepConfig{Interval: 10 * time.Millisecond}, zap.NewNop().Sugar())
	sweeper.Start(ctx)
	defer sweeper.Stop()

	assert.Eventually(t, func() bool {
		contains, err := blacklist.Contains(ctx, expired)
		return err == nil && !contains
	}, time.Second, 10*time.Millisecond)

	contains, err := blacklist.Contains(ctx, live)
	require.NoError(t, err)
	assert.True(t, contains)
}

func TestSweeperStopIsIdempotent(t *testing.T) {
	registry, _, blacklist := newTestRegistry(t)

	sweeper := NewSweeper(registry, blacklist, &util.SweepConfig{Interval: time.Hour}, zap.NewNop().Sugar())
	sweeper.Start(context.Background())

	sweeper.Stop()
	sweeper.Stop()
}
