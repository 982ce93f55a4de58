package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/planora/planora-auth/internal/models"
	"github.com/planora/planora-auth/internal/util"
)

var (
	ErrTokenExpired         = errors.New("token expired")
	ErrTokenInvalid         = errors.New("token invalid")
	ErrTokenNotYetValid     = errors.New("token not yet valid")
	ErrInvalidTokenType     = errors.New("invalid token type")
	ErrInvalidSigningMethod = errors.New("invalid signing method")
)

const bearerScheme = "Bearer"

// TokenService creates and verifies signed, time-bound access and refresh
// tokens. All expiry comparisons go through a single clock source.
type TokenService struct {
	JwtSecretKey []byte
	accessTTL    time.Duration
	refreshTTL   time.Duration
	issuer       string
	audience     string
	now          func() time.Time
}

func NewTokenService(cfg *util.TokenConfig) *TokenService {
	return &TokenService{
		JwtSecretKey: cfg.JwtSecretKey,
		accessTTL:    cfg.AccessTTL,
		refreshTTL:   cfg.RefreshTTL,
		issuer:       cfg.Issuer,
		audience:     cfg.Audience,
		now:          time.Now,
	}
}

type jwtClaims struct {
	Email     string           `json:"email"`
	TokenType models.TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

func (ts *TokenService) IssueAccessToken(subjectID, email string) (string, error) {
	return ts.issue(subjectID, email, models.TokenTypeAccess, ts.accessTTL)
}

func (ts *TokenService) IssueRefreshToken(subjectID, email string) (string, error) {
	return ts.issue(subjectID, email, models.TokenTypeRefresh, ts.refreshTTL)
}

// IssueTokenPair issues an access/refresh pair. Signing is a pure in-memory
// operation, so there is no externally observable partial-failure state.
func (ts *TokenService) IssueTokenPair(subjectID, email string) (*models.TokenPair, error) {
	accessToken, err := ts.IssueAccessToken(subjectID, email)
	if err != nil {
		return nil, err
	}
	refreshToken, err := ts.IssueRefreshToken(subjectID, email)
	if err != nil {
		return nil, err
	}

	return &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		AccessExpiresAt: ts.now().Add(ts.accessTTL).UnixMilli(),
	}, nil
}

func (ts *TokenService) issue(subjectID, email string, tokenType models.TokenType, ttl time.Duration) (string, error) {
	now := ts.now()
	claims := &jwtClaims{
		Email:     email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Issuer:    ts.issuer,
			Audience:  jwt.ClaimStrings{ts.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signedToken, err := token.SignedString(ts.JwtSecretKey)
	if err != nil {
		return "", fmt.Errorf("signed string: %w", err)
	}

	return signedToken, nil
}

// Verify checks signature, expiry and not-before and returns the decoded
// payload. Failure kinds are distinct so callers can react differently:
// expired prompts a refresh, invalid is a hard reject.
func (ts *TokenService) Verify(token string) (*models.TokenPayload, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithLeeway(util.JWTLeeWay),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(ts.issuer),
		jwt.WithAudience(ts.audience),
		jwt.WithTimeFunc(ts.now),
	}

	parsedToken, err := jwt.ParseWithClaims(
		token,
		&jwtClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS512.Alg() {
				return nil, ErrInvalidSigningMethod
			}
			return ts.JwtSecretKey, nil
		},
		opts...,
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, fmt.Errorf("%w: %w", ErrTokenNotYetValid, err)
		default:
			return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
		}
	}

	if parsedToken == nil || !parsedToken.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := parsedToken.Claims.(*jwtClaims)
	if !ok || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	return claims.payload(), nil
}

// PeekExpiry decodes the token without verifying the signature. The result
// is for bookkeeping only (blacklist TTL), never authorization decisions.
func (ts *TokenService) PeekExpiry(token string) (time.Time, bool) {
	payload, ok := ts.peek(token)
	if !ok || payload.ExpiresAt.IsZero() {
		return time.Time{}, false
	}
	return payload.ExpiresAt, true
}

func (ts *TokenService) peek(token string) (*models.TokenPayload, bool) {
	parsedToken, _, err := new(jwt.Parser).ParseUnverified(token, &jwtClaims{})
	if err != nil {
		return nil, false
	}

	claims, ok := parsedToken.Claims.(*jwtClaims)
	if !ok {
		return nil, false
	}

	return claims.payload(), true
}

// ExtractBearer parses an "Authorization: Bearer <token>" header value.
// Any malformed or absent header yields "" — this is a parsing helper,
// not an authorization decision.
func ExtractBearer(headerValue string) string {
	scheme, token, found := strings.Cut(headerValue, " ")
	if !found || scheme != bearerScheme {
		return ""
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.Contains(token, " ") {
		return ""
	}
	return token
}

func (c *jwtClaims) payload() *models.TokenPayload {
	payload := &models.TokenPayload{
		SubjectID: c.Subject,
		Email:     c.Email,
		TokenType: c.TokenType,
	}
	if c.IssuedAt != nil {
		payload.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		payload.ExpiresAt = c.ExpiresAt.Time
	}
	return payload
}
