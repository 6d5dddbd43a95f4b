package integration

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	adaptershttp "github.com/ovik/wagerd/internal/adapter/http"
	"github.com/ovik/wagerd/internal/adapter/http/handler"
	"github.com/ovik/wagerd/internal/adapter/paystack"
	postgresRepo "github.com/ovik/wagerd/internal/adapter/repository/postgres"
	redisrepo "github.com/ovik/wagerd/internal/adapter/repository/redis"
	"github.com/ovik/wagerd/internal/domain"
	"github.com/ovik/wagerd/internal/infrastructure/metrics"
	infraredis "github.com/ovik/wagerd/internal/infrastructure/redis"
	"github.com/ovik/wagerd/internal/usecase"
	"github.com/ovik/wagerd/tests/testutil"
)

// testEnv wires the full stack against a real database and redis, with
// the transfer processor pointed at transferURL (usually an httptest
// server).
type testEnv struct {
	Router     http.Handler
	Ledger     *usecase.LedgerUseCase
	Settlement *usecase.SettlementUseCase
	Join       *usecase.JoinUseCase
	Withdrawal *usecase.WithdrawalUseCase
	Sweeper    *usecase.SweeperUseCase
	Settings   *usecase.SettingsUseCase
}

var testMetrics = metrics.New()

func newTestEnv(t *testing.T, testDB *testutil.TestDB, transferURL string) *testEnv {
	t.Helper()

	ctx := context.Background()
	pool := testDB.Pool
	logger := zerolog.Nop()

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	redisClient, err := infraredis.NewClient(ctx, redisURL)
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	t.Cleanup(func() { redisClient.Close() })

	if err := redisClient.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}

	txManager := postgresRepo.NewTxManager(pool)
	userRepo := postgresRepo.NewUserRepository(pool)
	wagerRepo := postgresRepo.NewWagerRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	txnRepo := postgresRepo.NewTransactionRepository(pool)
	withdrawalRepo := postgresRepo.NewWithdrawalRepository(pool)
	settingRepo := postgresRepo.NewSettingRepository(pool, logger)
	idGen := postgresRepo.NewULIDGenerator()

	cache := redisrepo.NewCache(redisClient, logger)
	dedupStore := redisrepo.NewDedupStore(redisClient)

	defaults := domain.Settings{
		FeePercentage:        decimal.RequireFromString("0.05"),
		Currency:             "NGN",
		MinWithdrawal:        100,
		MaxWithdrawal:        1_000_000,
		DailyWithdrawalLimit: 10_000_000,
	}
	settingsUC := usecase.NewSettingsUseCase(settingRepo, defaults, logger)

	paystackClient := paystack.NewClient(transferURL, "sk_test", 5*time.Second, logger)

	userUC := usecase.NewUserUseCase(userRepo, settingsUC, idGen)
	wagerUC := usecase.NewWagerUseCase(wagerRepo, entryRepo, cache, settingsUC, idGen, testMetrics, logger)
	joinUC := usecase.NewJoinUseCase(txManager, wagerRepo, entryRepo, userRepo, txnRepo, cache, nil, idGen, testMetrics, logger)
	ledgerUC := usecase.NewLedgerUseCase(txManager, userRepo, txnRepo, dedupStore, idGen, testMetrics)
	settlementUC := usecase.NewSettlementUseCase(txManager, wagerRepo, entryRepo, userRepo, txnRepo, cache, nil, idGen, testMetrics, logger)
	withdrawalUC := usecase.NewWithdrawalUseCase(txManager, withdrawalRepo, userRepo, txnRepo, ledgerUC, paystackClient, dedupStore, nil, settingsUC, idGen, testMetrics, logger)
	sweeperUC := usecase.NewSweeperUseCase(wagerRepo, entryRepo, settlementUC, nil, settingsUC, testMetrics, logger)

	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		WagerHandler:      handler.NewWagerHandler(wagerUC, joinUC, settlementUC),
		UserHandler:       handler.NewUserHandler(userUC, ledgerUC, wagerUC, withdrawalUC),
		WithdrawalHandler: handler.NewWithdrawalHandler(withdrawalUC),
		WebhookHandler:    handler.NewWebhookHandler(withdrawalUC, ledgerUC, nil, logger),
		AdminHandler:      handler.NewAdminHandler(sweeperUC, ledgerUC),
		HealthHandler:     handler.NewHealthHandler(pool, redisClient),
		Logger:            logger,
	})

	return &testEnv{
		Router:     router,
		Ledger:     ledgerUC,
		Settlement: settlementUC,
		Join:       joinUC,
		Withdrawal: withdrawalUC,
		Sweeper:    sweeperUC,
		Settings:   settingsUC,
	}
}
