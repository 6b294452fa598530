package main

import (
	"context"

	"github.com/oggyb/streammatch/internal/app"
	"github.com/oggyb/streammatch/internal/cache"
	"github.com/oggyb/streammatch/internal/config"
	"github.com/oggyb/streammatch/internal/db"
	"github.com/oggyb/streammatch/internal/logger"
	"github.com/oggyb/streammatch/internal/server"
	"github.com/oggyb/streammatch/internal/service/explore"
	"github.com/oggyb/streammatch/internal/service/match"
	"github.com/oggyb/streammatch/internal/service/profile"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	// Inject logger into app context
	appCtx := app.New(database, redisCache, log)

	registrars := []server.Registrar{
		explore.NewRegistrar(appCtx),
		match.NewRegistrar(appCtx),
		profile.NewRegistrar(appCtx),
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, registrars...); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
