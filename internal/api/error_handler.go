package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/planora/planora-auth/internal/service"
)

func ErrorHandler(log *zap.SugaredLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		if status, reason, ok := classify(err); ok {
			if err := c.JSON(status, map[string]string{"reason": reason}); err != nil {
				log.Errorw("failed to write json response", "error", err)
			}
			return
		}

		he, ok := err.(*echo.HTTPError)
		if ok {
			if he.Code == http.StatusInternalServerError {
				log.Errorw("HTTP error", "error", err, "uri", c.Request().RequestURI)
			}
			if err := c.JSON(he.Code, map[string]string{"reason": he.Message.(string)}); err != nil {
				log.Errorw("failed to write json response", "error", err)
			}
			return
		}

		log.Errorw("unhandled error", "error", err, "uri", c.Request().RequestURI)
		c.JSON(http.StatusInternalServerError, map[string]string{"reason": "internal server error"})
	}
}

// classify maps service failure kinds to statuses. Reuse detection gets its
// own reason so clients know to force a full re-authentication instead of
// retrying.
func classify(err error) (int, string, bool) {
	switch {
	case errors.Is(err, service.ErrTokenReuseDetected):
		return http.StatusUnauthorized, "session revoked: reuse detected", true
	case errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrTokenInvalid),
		errors.Is(err, service.ErrTokenNotYetValid),
		errors.Is(err, service.ErrInvalidTokenType),
		errors.Is(err, service.ErrRefreshNotFound),
		errors.Is(err, service.ErrTokenUserMismatch):
		return http.StatusUnauthorized, "unauthorized", true
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials", true
	case errors.Is(err, service.ErrNoPasswordSet):
		return http.StatusBadRequest, "account has no password; use the provider login", true
	case errors.Is(err, service.ErrIdentityAlreadyExists):
		return http.StatusConflict, "email already registered", true
	}
	return 0, "", false
}
