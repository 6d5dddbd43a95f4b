package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ovik/wagerd/internal/usecase"
)

type limiterStub struct {
	result     usecase.RateLimitResult
	err        error
	identifier string
	endpoint   string
}

func (s *limiterStub) Check(ctx context.Context, identifier, endpoint string, limit int64, window time.Duration) (usecase.RateLimitResult, error) {
	s.identifier = identifier
	s.endpoint = endpoint
	return s.result, s.err
}

func TestRateLimitMiddlewareAllows(t *testing.T) {
	stub := &limiterStub{result: usecase.RateLimitResult{
		Allowed:   true,
		Remaining: 7,
		ResetAt:   time.Now().Add(time.Minute),
	}}
	mw := NewRateLimitMiddleware(stub, time.Minute, zerolog.Nop())

	called := false
	handler := mw.Limit("default", 10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wagers", nil)
	req.RemoteAddr = "1.2.3.4:5678"
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected next handler to run")
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "7" {
		t.Fatalf("expected remaining header 7, got %q", got)
	}
	if stub.identifier != "1.2.3.4:5678" || stub.endpoint != "default" {
		t.Fatalf("unexpected limiter args: %s %s", stub.identifier, stub.endpoint)
	}
}

func TestRateLimitMiddlewareBlocks(t *testing.T) {
	stub := &limiterStub{result: usecase.RateLimitResult{
		Allowed:   false,
		Remaining: 0,
		ResetAt:   time.Now().Add(30 * time.Second),
	}}
	mw := NewRateLimitMiddleware(stub, time.Minute, zerolog.Nop())

	handler := mw.Limit("mutation", 10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run when blocked")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/withdrawals", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header to be set")
	}
}

func TestRateLimitMiddlewareFailsOpen(t *testing.T) {
	stub := &limiterStub{err: errors.New("redis unavailable")}
	mw := NewRateLimitMiddleware(stub, time.Minute, zerolog.Nop())

	called := false
	handler := mw.Limit("default", 10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wagers", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected request to pass when the limiter errors")
	}
}

func TestGetIPPrefersForwardedHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.7")

	if got := getIP(req); got != "203.0.113.7" {
		t.Fatalf("expected forwarded IP, got %s", got)
	}

	req.Header.Del("X-Forwarded-For")
	req.Header.Set("X-Real-IP", "198.51.100.2")
	if got := getIP(req); got != "198.51.100.2" {
		t.Fatalf("expected real IP, got %s", got)
	}

	req.Header.Del("X-Real-IP")
	if got := getIP(req); got != "10.0.0.1:1234" {
		t.Fatalf("expected remote addr, got %s", got)
	}
}
