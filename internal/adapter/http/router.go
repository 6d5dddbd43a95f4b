package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ovik/wagerd/internal/adapter/http/handler"
	"github.com/ovik/wagerd/internal/adapter/http/middleware"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	WagerHandler      *handler.WagerHandler
	UserHandler       *handler.UserHandler
	WithdrawalHandler *handler.WithdrawalHandler
	WebhookHandler    *handler.WebhookHandler
	AdminHandler      *handler.AdminHandler
	HealthHandler     *handler.HealthHandler

	// RateLimit is optional; when nil no limits are enforced.
	RateLimit     *middleware.RateLimitMiddleware
	DefaultLimit  int64
	MutationLimit int64

	Logger zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery(cfg.Logger))

	// Health and observability endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	defaultLimit := passthrough
	mutationLimit := passthrough
	if cfg.RateLimit != nil {
		defaultLimit = cfg.RateLimit.Limit("default", cfg.DefaultLimit)
		mutationLimit = cfg.RateLimit.Limit("mutation", cfg.MutationLimit)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Wagers
		r.Route("/wagers", func(r chi.Router) {
			r.With(mutationLimit).Post("/", cfg.WagerHandler.Create)
			r.With(defaultLimit).Get("/", cfg.WagerHandler.List)
			r.With(defaultLimit).Get("/{id}", cfg.WagerHandler.Get)
			r.With(mutationLimit).Post("/{id}/join", cfg.WagerHandler.Join)
			r.With(mutationLimit).Post("/{id}/resolve", cfg.WagerHandler.Resolve)
			r.With(mutationLimit).Post("/{id}/settle", cfg.WagerHandler.Settle)
			r.With(mutationLimit).Post("/{id}/refund", cfg.WagerHandler.Refund)
		})

		// Users
		r.Route("/users", func(r chi.Router) {
			r.With(mutationLimit).Post("/", cfg.UserHandler.Create)
			r.With(defaultLimit).Get("/{id}", cfg.UserHandler.Get)
			r.With(defaultLimit).Get("/{id}/balance", cfg.UserHandler.Balance)
			r.With(defaultLimit).Get("/{id}/transactions", cfg.UserHandler.Transactions)
			r.With(defaultLimit).Get("/{id}/wagers", cfg.UserHandler.Wagers)
			r.With(defaultLimit).Get("/{id}/withdrawals", cfg.UserHandler.Withdrawals)
		})

		// Withdrawals
		r.Route("/withdrawals", func(r chi.Router) {
			r.With(mutationLimit).Post("/", cfg.WithdrawalHandler.Create)
			r.With(defaultLimit).Get("/{id}", cfg.WithdrawalHandler.Get)
		})

		// Webhooks are authenticated by signature, not rate limited
		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/paystack", cfg.WebhookHandler.Transfer)
			r.Post("/deposits", cfg.WebhookHandler.Deposit)
		})

		// Operational endpoints
		r.Route("/admin", func(r chi.Router) {
			r.Post("/sweep", cfg.AdminHandler.Sweep)
			r.Get("/consistency", cfg.AdminHandler.Consistency)
		})
	})

	return r
}

func passthrough(next http.Handler) http.Handler { return next }
