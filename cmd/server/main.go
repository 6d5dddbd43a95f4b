package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	httpAdapter "github.com/ovik/wagerd/internal/adapter/http"
	"github.com/ovik/wagerd/internal/adapter/http/handler"
	"github.com/ovik/wagerd/internal/adapter/http/middleware"
	"github.com/ovik/wagerd/internal/adapter/notifier"
	"github.com/ovik/wagerd/internal/adapter/paystack"
	postgresRepo "github.com/ovik/wagerd/internal/adapter/repository/postgres"
	redisRepo "github.com/ovik/wagerd/internal/adapter/repository/redis"
	"github.com/ovik/wagerd/internal/adapter/resolver"
	"github.com/ovik/wagerd/internal/domain"
	"github.com/ovik/wagerd/internal/infrastructure/config"
	"github.com/ovik/wagerd/internal/infrastructure/logger"
	"github.com/ovik/wagerd/internal/infrastructure/metrics"
	"github.com/ovik/wagerd/internal/infrastructure/postgres"
	"github.com/ovik/wagerd/internal/infrastructure/redis"
	"github.com/ovik/wagerd/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	appLogger.Info().Msg("connected to postgres")

	// Run migrations
	if cfg.MigrationsPath != "" {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, appLogger); err != nil {
			appLogger.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	appLogger.Info().Msg("connected to redis")

	appMetrics := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	userRepo := postgresRepo.NewUserRepository(pool)
	wagerRepo := postgresRepo.NewWagerRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	txnRepo := postgresRepo.NewTransactionRepository(pool)
	withdrawalRepo := postgresRepo.NewWithdrawalRepository(pool)
	settingRepo := postgresRepo.NewSettingRepository(pool, appLogger)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(appLogger)

	cache := redisRepo.NewCache(redisClient, appLogger)
	rateLimiter := redisRepo.NewRateLimiter(redisClient, appLogger)
	dedupStore := redisRepo.NewDedupStore(redisClient)

	// External adapters
	var notif usecase.Notifier
	if cfg.NotifierURL != "" {
		notif = notifier.New(cfg.NotifierURL, cfg.NotifierTimeout, appLogger)
	}

	var outcomeResolver usecase.OutcomeResolver
	if cfg.ResolverURL != "" {
		outcomeResolver = resolver.NewClient(cfg.ResolverURL, cfg.ResolverTimeout)
	}

	paystackClient := paystack.NewClient(cfg.PaystackBaseURL, cfg.PaystackSecretKey, cfg.PaystackTimeout, appLogger)

	// Settings: env defaults, overridden by the settings table.
	defaults := domain.Settings{
		FeePercentage:        decimal.RequireFromString(cfg.DefaultFeePercentage),
		Currency:             cfg.DefaultCurrency,
		MinWithdrawal:        cfg.DefaultMinWithdrawal,
		MaxWithdrawal:        cfg.DefaultMaxWithdrawal,
		DailyWithdrawalLimit: cfg.DefaultDailyWithdrawalLimit,
		AutoResolveEnabled:   cfg.AutoResolveEnabled,
		ResolveConfidenceMin: cfg.ResolveConfidenceMin,
	}
	settingsUC := usecase.NewSettingsUseCase(settingRepo, defaults, appLogger)
	if err := settingsUC.Reload(ctx); err != nil {
		appLogger.Warn().Err(err).Msg("initial settings load failed, using defaults")
	}

	// Initialize use cases
	userUC := usecase.NewUserUseCase(userRepo, settingsUC, idGen)
	wagerUC := usecase.NewWagerUseCase(wagerRepo, entryRepo, cache, settingsUC, idGen, appMetrics, appLogger)
	joinUC := usecase.NewJoinUseCase(txManager, wagerRepo, entryRepo, userRepo, txnRepo, cache, notif, idGen, appMetrics, appLogger).
		WithRetrier(retrier)
	ledgerUC := usecase.NewLedgerUseCase(txManager, userRepo, txnRepo, dedupStore, idGen, appMetrics)
	settlementUC := usecase.NewSettlementUseCase(txManager, wagerRepo, entryRepo, userRepo, txnRepo, cache, notif, idGen, appMetrics, appLogger).
		WithRetrier(retrier)
	withdrawalUC := usecase.NewWithdrawalUseCase(txManager, withdrawalRepo, userRepo, txnRepo, ledgerUC, paystackClient, dedupStore, notif, settingsUC, idGen, appMetrics, appLogger)
	sweeperUC := usecase.NewSweeperUseCase(wagerRepo, entryRepo, settlementUC, outcomeResolver, settingsUC, appMetrics, appLogger)

	// Background jobs
	jobCtx, stopJobs := context.WithCancel(ctx)
	defer stopJobs()
	go settingsUC.Run(jobCtx, cfg.SettingsRefreshInterval)
	go sweeperUC.Run(jobCtx, cfg.SweepInterval)

	// Initialize handlers
	wagerHandler := handler.NewWagerHandler(wagerUC, joinUC, settlementUC)
	userHandler := handler.NewUserHandler(userUC, ledgerUC, wagerUC, withdrawalUC)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalUC)
	var verifier handler.SignatureVerifier
	if cfg.PaystackSecretKey != "" {
		verifier = paystackClient
	}
	webhookHandler := handler.NewWebhookHandler(withdrawalUC, ledgerUC, verifier, appLogger)
	adminHandler := handler.NewAdminHandler(sweeperUC, ledgerUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		WagerHandler:      wagerHandler,
		UserHandler:       userHandler,
		WithdrawalHandler: withdrawalHandler,
		WebhookHandler:    webhookHandler,
		AdminHandler:      adminHandler,
		HealthHandler:     healthHandler,
		RateLimit:         middleware.NewRateLimitMiddleware(rateLimiter, cfg.RateLimitWindow, appLogger),
		DefaultLimit:      cfg.RateLimitDefault,
		MutationLimit:     cfg.RateLimitMutation,
		Logger:            appLogger,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		appLogger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down server...")
	stopJobs()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info().Msg("server stopped")
}
