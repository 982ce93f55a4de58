package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/planora/planora-auth/internal/api"
	"github.com/planora/planora-auth/internal/controller"
	"github.com/planora/planora-auth/internal/migrations"
	"github.com/planora/planora-auth/internal/service"
	"github.com/planora/planora-auth/internal/storage"
	"github.com/planora/planora-auth/internal/storage/memory"
	"github.com/planora/planora-auth/internal/storage/postgres"
	redisstore "github.com/planora/planora-auth/internal/storage/redis"
	"github.com/planora/planora-auth/internal/util"

	_ "github.com/lib/pq"
)

func main() {
	ctx := context.Background()
	logger := util.NewZapLogger()

	db, dbCleanup, err := util.NewDBConnection(logger)
	if err != nil {
		logger.Fatal(zap.Error(err))
	}
	if err := migrations.RunMigrations(db, logger, "./internal/migrations"); err != nil {
		logger.Fatal(zap.Error(err))
	}

	cleanupFuncs := []func(){dbCleanup}

	var blacklistStore storage.TokenBlacklist
	if util.BlacklistBackend() == "redis" {
		redisClient, redisCleanup, err := util.NewRedisClient(logger, util.NewRedisConfig())
		if err != nil {
			logger.Fatal(zap.Error(err))
		}
		cleanupFuncs = append(cleanupFuncs, redisCleanup)
		blacklistStore = redisstore.NewTokenBlacklist(redisClient)
	} else {
		blacklistStore = memory.NewTokenBlacklist()
	}

	tokenService := service.NewTokenService(util.NewTokenConfig())
	blacklistService := service.NewBlacklistService(blacklistStore, tokenService)
	registry := service.NewSessionRegistry(
		tokenService,
		memory.NewSessionRepository(logger),
		blacklistService,
		util.NewRegistryConfig(),
		logger,
	)

	identityService := service.NewIdentityService(postgres.NewUserRepository(db))
	alertService := service.NewAlertService(logger, util.AlertWebhookURL())
	authService := service.NewAuthService(identityService, tokenService, registry, blacklistService, alertService, logger)

	sweeper := service.NewSweeper(registry, blacklistService, util.NewSweepConfig(), logger)
	sweeper.Start(ctx)
	cleanupFuncs = append(cleanupFuncs, sweeper.Stop)

	authenticator := api.NewAuthenticator(tokenService, blacklistService)
	ctrl := controller.NewController(logger, authService, blacklistService, registry)

	apiServer := api.NewAPI(ctrl, authenticator, util.NewServerConfig(), logger, cleanupFuncs)
	apiServer.Run(ctx)
}
