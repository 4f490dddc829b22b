package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"anoa.com/moodquest/internal/bootstrap"
	"anoa.com/moodquest/internal/config"
	"anoa.com/moodquest/internal/server"
	"anoa.com/moodquest/pkg/database"
	"anoa.com/moodquest/pkg/logger"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init("moodquest", cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	if err := bootstrap.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	if cfg.AppEnv == "development" {
		if _, err := bootstrap.SeedDemoUser(db); err != nil {
			log.Fatal().Err(err).Msg("failed to seed demo user")
		}
	}

	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("redis unavailable")
	}
	if redisClient == nil {
		log.Warn().Msg("REDIS_URL not set, running without redis")
	} else {
		defer redisClient.Close()
	}

	srv, err := server.NewServer(cfg, db, redisClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build server")
	}

	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}
