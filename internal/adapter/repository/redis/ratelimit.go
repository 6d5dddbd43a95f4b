package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ovik/wagerd/internal/usecase"
)

// RateLimiter implements usecase.RateLimiter with fixed windows: one
// counter per (identifier, endpoint, window start), INCR plus EXPIRE.
// When Redis is unavailable the request is allowed; rate limiting is
// protection, not a correctness guarantee.
type RateLimiter struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
}

// NewRateLimiter creates a new RateLimiter.
func NewRateLimiter(client *redis.Client, logger zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: "ratelimit:",
		logger: logger,
	}
}

// Check counts this request against the identifier's window and reports
// whether it is allowed.
func (l *RateLimiter) Check(ctx context.Context, identifier, endpoint string, limit int64, window time.Duration) (usecase.RateLimitResult, error) {
	now := time.Now()
	windowStart := now.Truncate(window)
	resetAt := windowStart.Add(window)

	key := fmt.Sprintf("%s%s:%s:%d", l.prefix, identifier, endpoint, windowStart.Unix())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("rate limiter unavailable, allowing request")
		return usecase.RateLimitResult{Allowed: true, Remaining: limit, ResetAt: resetAt}, nil
	}

	count := incr.Val()
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return usecase.RateLimitResult{
		Allowed:   count <= limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
