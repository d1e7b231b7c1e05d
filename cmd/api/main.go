package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallet-ledger/config"
	"wallet-ledger/internal/adapter/fxrate"
	httpHandler "wallet-ledger/internal/adapter/http/handler"
	pgStorage "wallet-ledger/internal/adapter/storage/postgres"
	redisStorage "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/service"
	"wallet-ledger/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional; real environment variables win.
	envErr := godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration:\n%v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		log.Warn().Err(envErr).Msg("could not read .env file")
	}

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Wallet Ledger")

	ctx := context.Background()

	// PostgreSQL
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	if err := pgStorage.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}
	log.Info().Msg("PostgreSQL connected")

	// Redis
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Repositories
	currencyRepo := pgStorage.NewCurrencyRepo(pool)
	userRepo := pgStorage.NewUserRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Currency catalog
	currencies := service.NewCurrencyService(currencyRepo, transactor, cfg.Ledger.DefaultCurrency, log)
	if cfg.Currency.LoadDefaults {
		seed := make([]domain.Currency, 0, len(cfg.Currency.Seed))
		for _, s := range cfg.Currency.Seed {
			seed = append(seed, domain.Currency{Code: s.Code, Name: s.Name})
		}
		if _, err := currencies.Seed(ctx, seed); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed currency catalog")
		}
	}
	if _, err := currencies.Default(ctx); err != nil {
		log.Fatal().Err(err).Str("currency", cfg.Ledger.DefaultCurrency).Msg("Default currency unavailable")
	}
	if _, err := currencies.Validate(ctx, cfg.Ledger.SettlementCurrency); err != nil {
		log.Fatal().Err(err).Str("currency", cfg.Ledger.SettlementCurrency).Msg("Settlement currency unavailable")
	}

	// FX rates
	rateCache := redisStorage.NewCache(rdb)
	rateSvc := service.NewRateService(
		rateCache,
		fxrate.NewClient(cfg.FX, nil, log),
		currencies,
		cfg.FX.CacheTTL,
		cfg.FX.Timeout,
		log,
	)
	if cfg.FX.WarmOnStartup {
		rates, err := rateSvc.WarmAll(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to warm FX rate cache")
		}
		log.Info().Int("pairs", len(rates)).Msg("FX rate cache warmed")
	}

	// Business services
	ledgerSvc := service.NewLedgerService(walletRepo, txRepo, currencies, rateSvc, transactor, service.LedgerOptions{
		SettlementCurrency: cfg.Ledger.SettlementCurrency,
		MaxRetries:         cfg.Ledger.MaxRetries,
		RetryBackoff:       cfg.Ledger.RetryBackoff,
	}, log)
	provisioningSvc := service.NewProvisioningService(userRepo, walletRepo, txRepo, currencies, transactor, service.ProvisioningOptions{
		OpeningBalance: cfg.Ledger.OpeningAmount(),
		MockBalance:    cfg.Ledger.MockBalance,
	}, log)
	querySvc := service.NewQueryService(walletRepo, txRepo, log)

	hashSvc := service.NewArgon2HashService(service.Argon2ParamsFromConfig(cfg.Password))
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	authSvc := service.NewAuthService(userRepo, hashSvc, tokenSvc, provisioningSvc)
	auditSvc := service.NewAuditService(auditRepo, log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		LedgerSvc:      ledgerSvc,
		QuerySvc:       querySvc,
		Currencies:     currencies,
		RateSvc:        rateSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: redisStorage.NewRateLimitStore(rdb),
		HealthCheckers: []ports.HealthChecker{pgStorage.NewHealthCheck(pool), rateCache},
		AuditSvc:       auditSvc,
		Mode:           cfg.Server.Mode,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

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
