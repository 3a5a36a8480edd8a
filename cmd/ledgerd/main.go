package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"credit-ledger/config"
	httpHandler "credit-ledger/internal/adapter/http/handler"
	pgStorage "credit-ledger/internal/adapter/storage/postgres"
	redisStorage "credit-ledger/internal/adapter/storage/redis"
	"credit-ledger/internal/core/ports"
	"credit-ledger/internal/service"
	"credit-ledger/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Credit Ledger")

	ctx := context.Background()

	// Apply schema migrations before opening the pool
	if cfg.Database.Migrate {
		if err := pgStorage.Migrate(cfg.Database.MigrateDSN(), log); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database schema")
		}
	}

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// Initialize repositories
	walletRepo := pgStorage.NewWalletRepo(pool)
	ledgerRepo := pgStorage.NewLedgerRepo(pool)
	costRepo := pgStorage.NewCostRepo(pool)
	eventRepo := pgStorage.NewPaymentEventRepo(pool)
	chargeKeyRepo := pgStorage.NewChargeKeyRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis-backed cost cache
	costCache := redisStorage.NewCostCache(rdb, cfg.Costs.CacheTTL)

	// Initialize business services
	walletSvc := service.NewWalletService(walletRepo, ledgerRepo, transactor, log)
	costRegistry := service.NewCostRegistry(costRepo, costCache, log)
	billingSvc := service.NewBillingService(costRegistry, walletRepo, ledgerRepo, chargeKeyRepo, transactor, log)
	ingestSvc := service.NewPaymentIngestService(eventRepo, walletRepo, ledgerRepo, transactor, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		WalletSvc:      walletSvc,
		BillingSvc:     billingSvc,
		IngestSvc:      ingestSvc,
		CostRegistry:   costRegistry,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
