package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/planora/planora-auth/internal/api"
	"github.com/planora/planora-auth/internal/models"
	"github.com/planora/planora-auth/internal/service"
)

type Controller struct {
	log       *zap.SugaredLogger
	auth      *service.AuthService
	blacklist *service.BlacklistService
	registry  *service.SessionRegistry
}

func NewController(log *zap.SugaredLogger, auth *service.AuthService, blacklist *service.BlacklistService, registry *service.SessionRegistry) *Controller {
	return &Controller{
		log:       log,
		auth:      auth,
		blacklist: blacklist,
		registry:  registry,
	}
}

// (GET /api/ping).
func (c *Controller) CheckServer(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, "ok")
}

// (POST /api/auth/register).
func (c *Controller) Register(ctx echo.Context) error {
	var req models.RegisterRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	resp, err := c.auth.Register(ctx.Request().Context(), req.Email, req.Password, req.Name)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, resp)
}

// (POST /api/auth/login).
func (c *Controller) Login(ctx echo.Context) error {
	var req models.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := c.auth.Login(ctx.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, resp)
}

// (POST /api/auth/refresh).
func (c *Controller) Refresh(ctx echo.Context) error {
	var req models.RefreshRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh_token is required")
	}

	pair, err := c.auth.Refresh(ctx.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, pair)
}

// (POST /api/auth/logout). Requires auth.
func (c *Controller) Logout(ctx echo.Context) error {
	accessToken, ok := api.AccessTokenFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req models.LogoutRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := c.auth.Logout(ctx.Request().Context(), accessToken, req.RefreshToken); err != nil {
		return err
	}

	return ctx.NoContent(http.StatusNoContent)
}

// (POST /api/auth/logout_all). Requires auth.
func (c *Controller) LogoutAll(ctx echo.Context) error {
	identity, ok := api.IdentityFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	accessToken, ok := api.AccessTokenFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	if err := c.auth.LogoutAll(ctx.Request().Context(), identity.ID, accessToken); err != nil {
		return err
	}

	return ctx.NoContent(http.StatusNoContent)
}

// (GET /api/auth/me). Requires auth.
func (c *Controller) Me(ctx echo.Context) error {
	identity, ok := api.IdentityFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	return ctx.JSON(http.StatusOK, identity)
}

// (DELETE /api/users/:id/sessions). Requires auth + ownership of :id.
func (c *Controller) DeleteUserSessions(ctx echo.Context) error {
	subjectID := ctx.Param("id")
	if err := c.registry.InvalidateAllForUser(ctx.Request().Context(), subjectID); err != nil {
		return err
	}
	c.log.Infow("user sessions invalidated", "subjectID", subjectID)

	return ctx.NoContent(http.StatusNoContent)
}

// (GET /api/auth/blacklist/stats). Ops hook.
func (c *Controller) BlacklistStats(ctx echo.Context) error {
	stats, err := c.blacklist.Stats(ctx.Request().Context())
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, stats)
}
