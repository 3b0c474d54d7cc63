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

	"budgetbox/internal/auth"
	"budgetbox/internal/bank/plaid"
	"budgetbox/internal/config"
	"budgetbox/internal/events"
	apphttp "budgetbox/internal/http"
	"budgetbox/internal/services"
	"budgetbox/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

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

	verifier, err := auth.NewClerkVerifier(context.Background(), cfg.ClerkJWKSURL, cfg.ClerkIssuer, cfg.ClerkAudience)
	if err != nil {
		logger.Error("Failed to initialize token verifier", "error", err, "jwks_url", cfg.ClerkJWKSURL)
		os.Exit(1)
	}

	// AMQP is optional; without it sync-completed events are simply not
	// published.
	var eventsClient *events.Client
	if cfg.AMQPURL != "" {
		eventsClient, err = events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRequestQueue, cfg.AMQPEventQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer eventsClient.Close()
		logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Auth:      auth.NewMiddleware(verifier, repo),
		Budgets:   services.NewBudgetService(repo),
		Ledger:    services.NewLedgerService(repo),
		Links:     services.NewLinkService(repo, bankClient),
		Sync:      services.NewSyncService(repo, bankClient, eventsClient),
		Mirror:    services.NewMirrorService(repo),
		Approvals: services.NewApprovalService(repo),
	})

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	logger.Info("Starting budgetbox server", "port", cfg.Port, "db_path", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
