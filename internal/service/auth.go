package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/planora/planora-auth/internal/models"
)

// AuthService composes the codec, blacklist, registry and credential
// resolver into the register/login/refresh/logout operations.
type AuthService struct {
	resolver  CredentialResolver
	tokens    *TokenService
	registry  *SessionRegistry
	blacklist *BlacklistService
	alerts    *AlertService
	log       *zap.SugaredLogger
}

func NewAuthService(
	resolver CredentialResolver,
	tokens *TokenService,
	registry *SessionRegistry,
	blacklist *BlacklistService,
	alerts *AlertService,
	log *zap.SugaredLogger,
) *AuthService {
	return &AuthService{
		resolver:  resolver,
		tokens:    tokens,
		registry:  registry,
		blacklist: blacklist,
		alerts:    alerts,
		log:       log,
	}
}

func (s *AuthService) Register(ctx context.Context, email, password, name string) (*models.AuthResponse, error) {
	identity, err := s.resolver.Register(ctx, email, password, name)
	if err != nil {
		return nil, err
	}

	response, err := s.issueSession(ctx, identity)
	if err != nil {
		return nil, err
	}

	s.log.Infow("user registered", "subjectID", identity.ID)
	return response, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	identity, err := s.resolver.Resolve(ctx, email, password)
	if err != nil {
		return nil, err
	}

	response, err := s.issueSession(ctx, identity)
	if err != nil {
		return nil, err
	}

	s.log.Infow("user logged in", "subjectID", identity.ID)
	return response, nil
}

// Refresh rotates a refresh token. A blacklisted-but-presented token is the
// theft signal: the rotation is refused and the caller must surface a hard
// session kill, not a silent retry.
func (s *AuthService) Refresh(ctx context.Context, oldRefreshToken string) (*models.TokenPair, error) {
	reused, err := s.registry.DetectReuse(ctx, oldRefreshToken)
	if err != nil {
		return nil, err
	}
	if reused {
		s.alerts.NotifySessionBreach(ctx, oldRefreshToken)
		return nil, ErrTokenReuseDetected
	}

	return s.registry.Rotate(ctx, oldRefreshToken)
}

// Logout blacklists the access token and, when a refresh token is supplied,
// retires that one session.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if err := s.blacklist.Add(ctx, accessToken, ""); err != nil {
		return err
	}
	if refreshToken != "" {
		if err := s.registry.InvalidateOne(ctx, refreshToken); err != nil {
			return err
		}
	}
	return nil
}

// LogoutAll blacklists the access token and retires every refresh session
// for the subject.
func (s *AuthService) LogoutAll(ctx context.Context, subjectID, accessToken string) error {
	if err := s.blacklist.Add(ctx, accessToken, ""); err != nil {
		return err
	}
	if err := s.registry.InvalidateAllForUser(ctx, subjectID); err != nil {
		return err
	}

	s.log.Infow("all sessions invalidated", "subjectID", subjectID)
	return nil
}

func (s *AuthService) issueSession(ctx context.Context, identity *models.Identity) (*models.AuthResponse, error) {
	pair, err := s.tokens.IssueTokenPair(identity.ID, identity.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token pair: %w", err)
	}

	// Fresh login, fresh family.
	if err := s.registry.Store(ctx, pair.RefreshToken, identity.ID, identity.Email, ""); err != nil {
		return nil, err
	}

	return &models.AuthResponse{User: *identity, Tokens: *pair}, nil
}
