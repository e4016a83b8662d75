package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/febuchner/settlers-of-catan/internal/auth"
	"github.com/febuchner/settlers-of-catan/internal/cache"
	"github.com/febuchner/settlers-of-catan/internal/config"
	"github.com/febuchner/settlers-of-catan/internal/database"
	"github.com/febuchner/settlers-of-catan/internal/handlers"
	"github.com/febuchner/settlers-of-catan/internal/middleware"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}
	logger := cfg.NewLogger()

	if err := auth.Init(cfg.TokenExpire); err != nil {
		logger.Fatalf("auth init: %v", err)
	}
	guard, err := auth.NewTableGuard(cfg.TablePassword)
	if err != nil {
		logger.Fatalf("table password: %v", err)
	}

	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("action log disabled: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := openResults(ctx, cfg)
	if err != nil {
		logger.Fatalf("result store: %v", err)
	}
	if results != nil {
		defer results.Close()
	}

	srv := handlers.NewGameServer(logger, handlers.ServerOptions{
		Rules:          cfg.Rules,
		Results:        results,
		Guard:          guard,
		ChatRatePerSec: cfg.ChatRatePerSec,
		ChatBurst:      cfg.ChatBurst,
		OriginPatterns: cfg.AllowedOrigins,
	})

	mux := http.NewServeMux()
	logged := middleware.LogMiddleware(logger)
	mux.Handle("/game/ws", logged(handlers.GameWSHandler(logger, srv)))
	mux.Handle("/game/snapshot", logged(handlers.SnapshotHandler(logger, srv)))
	mux.Handle("/game/results", logged(handlers.ResultsHandler(logger, srv)))
	mux.Handle("/game", logged(handlers.TableHandler(srv)))

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("shutdown: %v", err)
		}
	}()

	logger.Infof("Running on %s", httpSrv.Addr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server exited: %v", err)
	}
	srv.Wait()
	logger.Info("server stopped")
}

// openResults picks the result store named by RESULTS_DRIVER.
func openResults(ctx context.Context, cfg config.Config) (database.ResultStore, error) {
	switch cfg.ResultsDriver {
	case config.DriverPostgres:
		if err := database.ConnectDB(ctx, cfg.PostgresDSN); err != nil {
			return nil, err
		}
		return database.NewPostgresStore(database.DB), nil
	case config.DriverSQLite:
		return database.NewSQLiteStore(cfg.SQLitePath)
	}
	return nil, nil
}
