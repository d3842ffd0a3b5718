package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"trackr/internal/amqp"
	"trackr/internal/auth"
	"trackr/internal/cache"
	"trackr/internal/config"
	"trackr/internal/core"
	apphttp "trackr/internal/http"
	applog "trackr/internal/log"
	"trackr/internal/services"
	"trackr/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: "trackr"})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP is the optional backup pipeline; the app runs fine without it.
	var publisher services.RowPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP backup pipeline enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	expenseCache := cache.NewTagCache[[]core.ExpenseAggregate](cfg.CacheTTL)
	activityCache := cache.NewTagCache[[]core.ActivityWithEntries](cfg.CacheTTL)

	cacheManager := cache.NewManager()
	cacheManager.Register(expenseCache)
	cacheManager.Register(activityCache)
	cacheManager.StartCleanup(cfg.CacheCleanupInterval)
	defer cacheManager.Stop()

	budgetSvc := services.NewBudgetService(repo, publisher, expenseCache)
	activitySvc := services.NewActivityService(repo, publisher, activityCache)
	authSvc := auth.NewService(repo, cfg.SessionTTL)

	srv := apphttp.NewServer(":"+cfg.Port, budgetSvc, activitySvc, authSvc)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Sweep expired sessions alongside cache cleanup.
	go func() {
		ticker := time.NewTicker(cfg.CacheCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := repo.DeleteExpiredSessions(ctx); err != nil {
					logger.Warn("Session cleanup failed", "error", err)
				} else if n > 0 {
					logger.Debug("Expired sessions removed", "count", n)
				}
			}
		}
	}()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting trackr server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
