package main

import (
	"codecalm/internal/api/handlers"
	"codecalm/internal/app"
	"codecalm/internal/config"
	"codecalm/internal/logger"
	"codecalm/internal/repository/db"
	"codecalm/internal/repository/postgres"
	"codecalm/internal/service/analytics"
	"codecalm/internal/service/llm"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Log.WithError(err).Fatal("Server exited with error")
	}
}

func run(ctx context.Context) error {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// Initialize database and apply migrations
	database, err := postgres.NewPostgresDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close()

	// Build the provider registry from the catalogue
	providers, err := llm.BuildRegistry(cfg.Providers, &http.Client{})
	if err != nil {
		return err
	}

	// Restore routing stats from persisted logs
	aggregator := analytics.NewAggregator(analytics.WithRecentReasons(cfg.Chat.RecentReasons))
	logs, err := database.ListRoutingLogs(ctx, db.RoutingLogFilter{})
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to restore routing analytics, starting empty")
	} else {
		aggregator.Rebuild(analytics.EventsFromLogs(logs))
		logger.Log.WithField("logs", len(logs)).Info("Routing analytics restored")
	}

	appConfig := app.NewConfig(database, cfg, providers, aggregator)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handlers.NewRouter(appConfig),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Log.WithFields(logrus.Fields{
			"port":      cfg.Server.Port,
			"fallback":  cfg.Providers.Fallback,
			"providers": len(cfg.Providers.Providers),
		}).Info("Server starting")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
