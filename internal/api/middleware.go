package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/planora/planora-auth/internal/models"
	"github.com/planora/planora-auth/internal/service"
)

const (
	IdentityContextKey    = "identity"
	AccessTokenContextKey = "access_token"
)

// OwnerResolver maps a request to the owner id of the resource it targets.
type OwnerResolver func(c echo.Context) (string, error)

// Authenticator carries the collaborators the auth middleware needs.
type Authenticator struct {
	tokens    *service.TokenService
	blacklist *service.BlacklistService
}

func NewAuthenticator(tokens *service.TokenService, blacklist *service.BlacklistService) *Authenticator {
	return &Authenticator{tokens: tokens, blacklist: blacklist}
}

// RequireAuth rejects the request unless it carries a valid, non-blacklisted
// access token. Every verification-path failure collapses to the same 401 so
// callers cannot probe why a token failed.
func (a *Authenticator) RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, token, err := a.authenticate(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}

			c.Set(IdentityContextKey, identity)
			c.Set(AccessTokenContextKey, token)

			return next(c)
		}
	}
}

// OptionalAuth runs the same checks but swallows every failure and continues
// without an identity. For endpoints that personalize but don't require
// login.
func (a *Authenticator) OptionalAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if identity, token, err := a.authenticate(c); err == nil {
				c.Set(IdentityContextKey, identity)
				c.Set(AccessTokenContextKey, token)
			}

			return next(c)
		}
	}
}

// RequireOwnership rejects the request unless the authenticated identity
// owns the targeted resource. Resolver failures propagate unchanged. Must
// run after RequireAuth.
func RequireOwnership(resolve OwnerResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := IdentityFromContext(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}

			ownerID, err := resolve(c)
			if err != nil {
				return err
			}
			if ownerID != identity.ID {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}

			return next(c)
		}
	}
}

// RequireRole only requires an identity to exist. There is no role model
// yet; this is a placeholder, not a silent pass.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := IdentityFromContext(c); !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}
			// TODO: enforce the role once the role model lands.
			return next(c)
		}
	}
}

func (a *Authenticator) authenticate(c echo.Context) (*models.Identity, string, error) {
	token := service.ExtractBearer(c.Request().Header.Get(echo.HeaderAuthorization))
	if token == "" {
		return nil, "", echo.ErrUnauthorized
	}

	// Blacklist check comes before signature verification: a revoked token
	// is rejected even while cryptographically valid.
	blacklisted, err := a.blacklist.Contains(c.Request().Context(), token)
	if err != nil || blacklisted {
		return nil, "", echo.ErrUnauthorized
	}

	payload, err := a.tokens.Verify(token)
	if err != nil {
		return nil, "", echo.ErrUnauthorized
	}
	if payload.TokenType != models.TokenTypeAccess {
		return nil, "", echo.ErrUnauthorized
	}

	return &models.Identity{ID: payload.SubjectID, Email: payload.Email}, token, nil
}

// IdentityFromContext returns the identity attached by the auth middleware.
func IdentityFromContext(c echo.Context) (*models.Identity, bool) {
	identity, ok := c.Get(IdentityContextKey).(*models.Identity)
	return identity, ok
}

// AccessTokenFromContext returns the raw bearer token attached by the auth
// middleware.
func AccessTokenFromContext(c echo.Context) (string, bool) {
	token, ok := c.Get(AccessTokenContextKey).(string)
	return token, ok
}

func GetLoggerMiddlewareConfig(log *zap.SugaredLogger) echomiddleware.RequestLoggerConfig {
	return echomiddleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,

		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", c.Request().Method,
				"uri", v.URI,
				"status", v.Status,
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
				log.Errorw("Request", fields...)
			} else {
				log.Infow("Request", fields...)
			}
			return nil
		},
	}
}
