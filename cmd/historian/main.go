// Command historian drains the engine's action queue from Redis into Postgres
// and marks sessions abandoned after a period without actions.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/febuchner/settlers-of-catan/internal/cache"
	"github.com/febuchner/settlers-of-catan/internal/config"
	"github.com/febuchner/settlers-of-catan/internal/database"
	"github.com/febuchner/settlers-of-catan/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.ConnectDB(ctx, cfg.PostgresDSN); err != nil {
		logger.Fatalf("database: %v", err)
	}
	store := database.NewPostgresStore(database.DB)
	defer store.Close()

	if err := cache.ConnectRedis(); err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer cache.Rdb.Close()

	svc := historian.New(cache.Rdb, store, historian.Config{
		QueueName:  cfg.QueueName,
		BatchSize:  cfg.HistorianBatchSize,
		FlushDelay: cfg.HistorianFlushDelay,
		Inactivity: cfg.GameInactivity,
	}, logger)

	logger.Info("catan-historian service started")
	svc.Run(ctx)
	logger.Info("Historian shutdown complete.")
}
