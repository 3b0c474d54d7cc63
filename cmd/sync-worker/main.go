package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budgetbox/internal/bank/plaid"
	"budgetbox/internal/config"
	"budgetbox/internal/events"
	"budgetbox/internal/services"
	"budgetbox/internal/storage"
	"budgetbox/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting sync-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the sync worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Syncing flags held by a previous crashed process would block those
	// accounts from ever syncing again.
	if released, err := repo.ResetSyncFlags(context.Background()); err != nil {
		logger.Error("Failed to reset sync flags", "error", err)
		os.Exit(1)
	} else if released > 0 {
		logger.Warn("Released stale sync flags", "accounts", released)
	}

	bankClient, err := plaid.New(cfg.PlaidClientID, cfg.PlaidSecret, cfg.PlaidEnvironment)
	if err != nil {
		logger.Error("Failed to initialize Plaid client", "error", err)
		os.Exit(1)
	}

	eventsClient, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRequestQueue, cfg.AMQPEventQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer eventsClient.Close()

	syncService := services.NewSyncService(repo, bankClient, eventsClient)
	syncWorker := worker.NewSyncWorker(repo, syncService, eventsClient, cfg.SyncConcurrency)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// On startup, enqueue a sweep so accounts linked while the worker was
	// down get picked up without waiting a full interval.
	if err := syncWorker.EnqueueDueUsers(ctx); err != nil {
		logger.Error("Startup enqueue failed", "error", err)
		// Don't exit - continue with normal operation
	}

	go func() {
		handler := func(msg *events.SyncRequestMessage) error {
			return syncWorker.HandleSyncRequest(ctx, msg)
		}
		if err := eventsClient.ConsumeSyncRequests(ctx, handler); err != nil {
			if err != context.Canceled {
				logger.Error("Message consumption failed", "error", err)
			}
			cancel()
		}
	}()

	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := syncWorker.EnqueueDueUsers(ctx); err != nil {
					logger.Error("Periodic enqueue failed", "error", err)
				}
			}
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	case <-ctx.Done():
	}

	logger.Info("Sync worker stopped gracefully")
}
