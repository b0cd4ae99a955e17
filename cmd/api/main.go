// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/your-org/checkout-engine/internal/config"
	"github.com/your-org/checkout-engine/internal/infrastructure/database/postgres"
	"github.com/your-org/checkout-engine/internal/infrastructure/database/redis"
	httpserver "github.com/your-org/checkout-engine/internal/interfaces/http"
	"github.com/your-org/checkout-engine/internal/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log := logger.New(cfg)

	db, err := postgres.NewConnection(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	if err := postgres.RunMigrations(db); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	if cfg.IsDevelopment() {
		if err := postgres.SeedDevData(db, cfg); err != nil {
			log.WithError(err).Warn("failed to seed development data")
		}
	}

	redisClient, err := redis.NewConnection(cfg)
	if err != nil {
		// Rate limiting degrades gracefully without Redis.
		log.WithError(err).Warn("redis unavailable, continuing without it")
		redisClient = nil
	}

	server := httpserver.NewServer(cfg, db, redisClient, log)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("server stopped unexpectedly")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	log.Info("server stopped")
}
