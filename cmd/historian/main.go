// cmd/historian drains the game action queue from Redis into PostgreSQL.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/palace/internal/cache"
	"github.com/jason-s-yu/palace/internal/config"
	"github.com/jason-s-yu/palace/internal/database"
	"github.com/jason-s-yu/palace/internal/historian"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.WithError(err).Fatal("connecting to database")
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		logger.WithError(err).Fatal("migrating database")
	}

	rdb, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		logger.WithError(err).Fatal("connecting to redis")
	}
	defer rdb.Close()

	hs := historian.New(rdb, historian.NewPostgresInserter(pool), logger, cfg.Historian)
	if err := hs.Run(ctx); err != nil {
		logger.WithError(err).Error("historian exited with error")
		os.Exit(1)
	}
}
