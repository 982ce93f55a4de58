package api

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/planora/planora-auth/internal/util"
)

const (
	shutdownTimeout = 5 * time.Second
)

// Routable is the handler set the server mounts. Kept as an interface so the
// server package does not import the controller package (the controller
// already imports this one for context helpers).
type Routable interface {
	CheckServer(echo.Context) error
	Register(echo.Context) error
	Login(echo.Context) error
	Refresh(echo.Context) error
	Logout(echo.Context) error
	LogoutAll(echo.Context) error
	Me(echo.Context) error
	DeleteUserSessions(echo.Context) error
	BlacklistStats(echo.Context) error
}

type API struct {
	server          *echo.Echo
	controller      Routable
	auth            *Authenticator
	log             *zap.SugaredLogger
	gracefulTimeout time.Duration
	cleanupFuncs    []func()
}

func NewAPI(c Routable, auth *Authenticator, sc *util.ServerConfig, l *zap.SugaredLogger, cleanupFuncs []func()) *API {
	e := echo.New()

	e.Server.Addr = sc.ServerAddr
	e.Server.WriteTimeout = sc.WriteTimeout
	e.Server.ReadTimeout = sc.ReadTimeout
	e.Server.IdleTimeout = sc.IdleTimeout
	e.HTTPErrorHandler = ErrorHandler(l)

	return &API{
		server:          e,
		controller:      c,
		auth:            auth,
		log:             l,
		gracefulTimeout: sc.GracefulTimeout,
		cleanupFuncs:    cleanupFuncs,
	}
}

func (a *API) Run(ctxBackground context.Context) {
	ctx, stop := signal.NotifyContext(ctxBackground, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.server.Use(echomiddleware.RequestLoggerWithConfig(GetLoggerMiddlewareConfig(a.log)))
	a.registerRoutes()

	a.ListenGracefulShutdown(ctx)
}

func (a *API) registerRoutes() {
	g := a.server.Group("/api")
	g.GET("/ping", a.controller.CheckServer)

	auth := g.Group("/auth")
	auth.POST("/register", a.controller.Register)
	auth.POST("/login", a.controller.Login)
	auth.POST("/refresh", a.controller.Refresh)
	auth.POST("/logout", a.controller.Logout, a.auth.RequireAuth())
	auth.POST("/logout_all", a.controller.LogoutAll, a.auth.RequireAuth())
	auth.GET("/me", a.controller.Me, a.auth.RequireAuth())
	auth.GET("/blacklist/stats", a.controller.BlacklistStats, a.auth.RequireAuth(), RequireRole("admin"))

	users := g.Group("/users", a.auth.RequireAuth())
	users.DELETE("/:id/sessions", a.controller.DeleteUserSessions, RequireOwnership(func(c echo.Context) (string, error) {
		return c.Param("id"), nil
	}))
}

func (a *API) ListenGracefulShutdown(ctx context.Context) {
	go func() {
		err := a.server.Start(a.server.Server.Addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()
	a.log.Infof("Listening on: %s", a.server.Server.Addr)

	<-ctx.Done()
	a.log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	if err != nil {
		a.log.Errorf("shutdown: %v", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	longShutdown := make(chan struct{}, 1)

	go func() {
		time.Sleep(a.gracefulTimeout)
		longShutdown <- struct{}{}
	}()

	select {
	case <-shutdownCtx.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			a.log.Info("server shutdown completed")
		} else {
			a.log.Errorf("server shutdown: %v", ctx.Err())
		}
	case <-longShutdown:
		a.log.Infof("finished")
	}
}
