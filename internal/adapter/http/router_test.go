package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ovik/wagerd/internal/adapter/http/handler"
	apimiddleware "github.com/ovik/wagerd/internal/adapter/http/middleware"
	"github.com/ovik/wagerd/internal/domain"
	"github.com/ovik/wagerd/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_MetricsEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /metrics to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	limiter := &denyingLimiter{}
	rl := apimiddleware.NewRateLimitMiddleware(limiter, time.Minute, zerolog.Nop())
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimit = rl
		cfg.DefaultLimit = 1
		cfg.MutationLimit = 1
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wagers/", nil)
	req.RemoteAddr = "1.2.3.4:1234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected request to be throttled, got %d", rec.Code)
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/wagers/",
		"GET /api/v1/wagers/",
		"GET /api/v1/wagers/{id}",
		"POST /api/v1/wagers/{id}/join",
		"POST /api/v1/wagers/{id}/resolve",
		"POST /api/v1/wagers/{id}/settle",
		"POST /api/v1/wagers/{id}/refund",
		"POST /api/v1/users/",
		"GET /api/v1/users/{id}/balance",
		"GET /api/v1/users/{id}/transactions",
		"POST /api/v1/withdrawals/",
		"POST /api/v1/webhooks/paystack",
		"POST /api/v1/webhooks/deposits",
		"POST /api/v1/admin/sweep",
		"GET /api/v1/admin/consistency",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	cfg := RouterConfig{
		WagerHandler:      handler.NewWagerHandler(routerWagerStub{}, routerJoinStub{}, routerSettlementStub{}),
		UserHandler:       handler.NewUserHandler(routerUserStub{}, routerLedgerStub{}, routerWagerStub{}, routerWithdrawalStub{}),
		WithdrawalHandler: handler.NewWithdrawalHandler(routerWithdrawalStub{}),
		WebhookHandler:    handler.NewWebhookHandler(routerWithdrawalStub{}, routerLedgerStub{}, nil, zerolog.Nop()),
		AdminHandler:      handler.NewAdminHandler(routerSweepStub{}, routerLedgerStub{}),
		HealthHandler:     handler.NewHealthHandler(nil, nil),
		Logger:            zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type denyingLimiter struct{}

func (denyingLimiter) Check(ctx context.Context, identifier, endpoint string, limit int64, window time.Duration) (usecase.RateLimitResult, error) {
	return usecase.RateLimitResult{Allowed: false, ResetAt: time.Now().Add(time.Minute)}, nil
}

type routerWagerStub struct{}

func (routerWagerStub) CreateWager(ctx context.Context, input usecase.CreateWagerInput) (*domain.Wager, error) {
	return &domain.Wager{ID: "w1"}, nil
}

func (routerWagerStub) GetWager(ctx context.Context, id string) (*usecase.WagerDetail, error) {
	return &usecase.WagerDetail{Wager: &domain.Wager{ID: id}}, nil
}

func (routerWagerStub) ListWagers(ctx context.Context, filter usecase.WagerFilter) ([]*domain.Wager, error) {
	return []*domain.Wager{}, nil
}

func (routerWagerStub) ListUserWagers(ctx context.Context, userID string, limit, offset int) ([]*domain.Wager, error) {
	return []*domain.Wager{}, nil
}

type routerJoinStub struct{}

func (routerJoinStub) Join(ctx context.Context, wagerID, userID string, side domain.Side) (*domain.Entry, error) {
	return &domain.Entry{ID: "e1"}, nil
}

type routerSettlementStub struct{}

func (routerSettlementStub) Resolve(ctx context.Context, wagerID string, winningSide domain.Side) error {
	return nil
}

func (routerSettlementStub) Settle(ctx context.Context, wagerID string) error { return nil }

func (routerSettlementStub) Refund(ctx context.Context, wagerID string) error { return nil }

type routerUserStub struct{}

func (routerUserStub) CreateUser(ctx context.Context, input usecase.CreateUserInput) (*domain.User, error) {
	return &domain.User{ID: "u1"}, nil
}

func (routerUserStub) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return &domain.User{ID: id}, nil
}

type routerLedgerStub struct{}

func (routerLedgerStub) GetBalance(ctx context.Context, userID string) (int64, error) {
	return 0, nil
}

func (routerLedgerStub) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error) {
	return []*domain.Transaction{}, nil
}

func (routerLedgerStub) RecordDeposit(ctx context.Context, userID string, amount int64, reference string) (int64, error) {
	return 0, nil
}

func (routerLedgerStub) CheckConsistency(ctx context.Context) (int64, error) { return 0, nil }

type routerWithdrawalStub struct{}

func (routerWithdrawalStub) RequestWithdrawal(ctx context.Context, userID string, amount int64, account domain.BankAccount) (*domain.Withdrawal, error) {
	return &domain.Withdrawal{ID: "wd1"}, nil
}

func (routerWithdrawalStub) GetWithdrawal(ctx context.Context, id string) (*domain.Withdrawal, error) {
	return &domain.Withdrawal{ID: id}, nil
}

func (routerWithdrawalStub) ListWithdrawals(ctx context.Context, userID string, limit, offset int) ([]*domain.Withdrawal, error) {
	return []*domain.Withdrawal{}, nil
}

func (routerWithdrawalStub) HandleTransferCallback(ctx context.Context, reference string, success bool, reason string) error {
	return nil
}

type routerSweepStub struct{}

func (routerSweepStub) Sweep(ctx context.Context) (usecase.SweepReport, error) {
	return usecase.SweepReport{}, nil
}
