package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"

	"github.com/planora/planora-auth/internal/models"
)

// fakeResolver is an in-memory credential resolver for orchestrator tests.
type fakeResolver struct {
	users map[string]fakeUser // keyed by email
}

type fakeUser struct {
	id       string
	password string // empty means OAuth-only account
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{users: make(map[string]fakeUser)}
}

func (f *fakeResolver) Register(_ context.Context, email, password, _ string) (*models.Identity, error) {
	if _, ok := f.users[email]; ok {
		return nil, ErrIdentityAlreadyExists
	}
	id := "user-" + email
	f.users[email] = fakeUser{id: id, password: password}
	return &models.Identity{ID: id, Email: email}, nil
}

func (f *fakeResolver) Resolve(_ context.Context, email, password string) (*models.Identity, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if user.password == "" {
		return nil, ErrNoPasswordSet
	}
	if user.password != password {
		return nil, ErrInvalidCredentials
	}
	return &models.Identity{ID: user.id, Email: email}, nil
}

func (f *fakeResolver) Lookup(_ context.Context, subjectID string) (*models.Identity, error) {
	for email, user := range f.users {
		if user.id == subjectID {
			return &models.Identity{ID: user.id, Email: email}, nil
		}
	}
	return nil, nil
}

func newTestAuthService(t *testing.T) (*AuthService, *SessionRegistry, *BlacklistService, *fakeResolver) {
	t.Helper()

	registry, tokens, blacklist := newTestRegistry(t)
	resolver := newFakeResolver()
	alerts := NewAlertService(zap.NewNop().Sugar(), "")
	auth := NewAuthService(resolver, tokens, registry, blacklist, alerts, zap.NewNop().Sugar())
	return auth, registry, blacklist, resolver
}

func TestRegisterIssuesSession(t *testing.T) {
	ctx := context.Background()
	auth, registry, _, _ := newTestAuthService(t)

	resp, err := auth.Register(ctx, "u1@x.com", "hunter2", "U One")
	require.NoError(t, err)
	assert.Equal(t, "u1@x.com", resp.User.Email)
	assert.NotEmpty(t, resp.Tokens.AccessToken)

	session, err := registry.Validate(ctx, resp.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, session.SubjectID)
}

func TestRegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	auth, _, _, _ := newTestAuthService(t)

	_, err := auth.Register(ctx, "u1@x.com", "hunter2", "")
	require.NoError(t, err)

	_, err = auth.Register(ctx, "u1@x.com", "hunter2", "")
	assert.ErrorIs(t, err, ErrIdentityAlreadyExists)
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	auth, _, _, resolver := newTestAuthService(t)

	_, err := auth.Login(ctx, "nobody@x.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Register(ctx, "u1@x.com", "hunter2", "")
	require.NoError(t, err)

	_, err = auth.Login(ctx, "u1@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	resolver.users["oauth@x.com"] = fakeUser{id: "user-oauth@x.com"}
	_, err = auth.Login(ctx, "oauth@x.com", "anything")
	assert.ErrorIs(t, err, ErrNoPasswordSet)
}

func TestLoginCreatesNewFamily(t *testing.T) {
	ctx := context.Background()
	auth, registry, _, _ := newTestAuthService(t)

	_, err := auth.Register(ctx, "u1@x.com", "hunter2", "")
	require.NoError(t, err)

	first, err := auth.Login(ctx, "u1@x.com", "hunter2")
	require.NoError(t, err)
	second, err := auth.Login(ctx, "u1@x.com", "hunter2")
	require.NoError(t, err)

	s1, err := registry.Validate(ctx, first.Tokens.RefreshToken)
	require.NoError(t, err)
	s2, err := registry.Validate(ctx, second.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, s1.Family, s2.Family)
}

func TestRefreshRotates(t *testing.T) {
	ctx := context.Background()
	auth, registry, _, _ := newTestAuthService(t)

	resp, err := auth.Register(ctx, "u1@x.com", "hunter2", "")
	require.NoError(t, err)
	r1 := resp.Tokens.RefreshToken

	pair, err := auth.Refresh(ctx, r1)
	require.NoError(t, err)

	_, err = registry.Validate(ctx, r1)
	assert.ErrorIs(t, err, ErrRefreshNotFound)

	_, err = registry.Validate(ctx, pair.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshReuseKillsSession(t *testing.T) {
	ctx := context.Background()
	auth, registry, _, _ := newTestAuthService(t)

	resp, err := auth.Register(ctx, "u1@x.com", "hunter2", "")
	require.NoError(t, err)
	r1 := resp.Tokens.RefreshToken

	pair, err := auth.Refresh(ctx, r1)
	require.NoError(t, err)
	r2 := pair.RefreshToken

	// Replaying the retired token is fatal for the whole family.
	_, err = auth.Refresh(ctx, r1)
	assert.ErrorIs(t, err, ErrTokenReuseDetected)

	_, err = registry.Validate(ctx, r2)
	assert.ErrorIs(t, err, ErrRefreshNotFound)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	auth, registry, blacklist, _ := newTestAuthService(t)

	resp, err := auth.Register(ctx, "u1@x.com", "hunter2", "")
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, resp.Tokens.AccessToken, resp.Tokens.RefreshToken))

	blacklisted, err := blacklist.Contains(ctx, resp.Tokens.AccessToken)
	require.NoError(t, err)
	assert.True(t, blacklisted)

	_, err = registry.Validate(ctx, resp.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshNotFound)
}

func TestLogoutAllInvalidatesEverySession(t *testing.T) {
	ctx := context.Background()
	auth, registry, blacklist, _ := newTestAuthService(t)

	resp, err := auth.Register(ctx, "u1@x.com", "hunter2", "")
	require.NoError(t, err)
	second, err := auth.Login(ctx, "u1@x.com", "hunter2")
	require.NoError(t, err)

	require.NoError(t, auth.LogoutAll(ctx, resp.User.ID, second.Tokens.AccessToken))

	blacklisted, err := blacklist.Contains(ctx, second.Tokens.AccessToken)
	require.NoError(t, err)
	assert.True(t, blacklisted)

	_, err = registry.Validate(ctx, resp.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshNotFound)
	_, err = registry.Validate(ctx, second.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshNotFound)
}
