package redis

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	limiter := NewRateLimiter(client, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		res, err := limiter.Check(ctx, "user-1", "join", 10, time.Minute)
		if err != nil {
			t.Fatalf("check failed: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d must be allowed", i+1)
		}
	}

	res, err := limiter.Check(ctx, "user-1", "join", 10, time.Minute)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if res.Allowed {
		t.Fatal("11th request must be rejected")
	}
	if res.Remaining != 0 {
		t.Fatalf("expected 0 remaining, got %d", res.Remaining)
	}
	if until := time.Until(res.ResetAt); until <= 0 || until > time.Minute {
		t.Fatalf("reset must fall within the window, got %s", until)
	}
}

func TestRateLimiterIsolatesIdentifiersAndEndpoints(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	limiter := NewRateLimiter(client, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := limiter.Check(ctx, "user-1", "join", 5, time.Minute); err != nil {
			t.Fatalf("check failed: %v", err)
		}
	}

	res, err := limiter.Check(ctx, "user-2", "join", 5, time.Minute)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !res.Allowed {
		t.Fatal("another identifier must have its own window")
	}

	res, err = limiter.Check(ctx, "user-1", "withdraw", 5, time.Minute)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !res.Allowed {
		t.Fatal("another endpoint must have its own window")
	}
}

func TestRateLimiterFailsOpenWithoutRedis(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	limiter := NewRateLimiter(client, zerolog.Nop())
	mr.Close()

	res, err := limiter.Check(context.Background(), "user-1", "join", 10, time.Minute)
	if err != nil {
		t.Fatalf("check must not error when redis is down: %v", err)
	}
	if !res.Allowed {
		t.Fatal("limiter must fail open when redis is down")
	}
}
