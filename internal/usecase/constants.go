package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds every database transaction.
	DefaultTransactionTimeout = 30 * time.Second

	// Cache TTLs are deliberately short: a stale wager status or stake
	// count must never drive a financial decision for long.
	WagerListTTL   = 30 * time.Second
	WagerDetailTTL = 30 * time.Second
	UserWagersTTL  = time.Minute

	// Cache key prefixes. Mutations invalidate by prefix because list
	// keys are parameterized and not enumerable by the writer.
	WagerListPrefix  = "wagers:list:"
	WagerDetailKey   = "wagers:detail:"
	UserWagersPrefix = "users:wagers:"

	// DedupTTL covers transfer webhook redelivery windows.
	DedupTTL = 48 * time.Hour

	// SweepBatchSize caps the wagers handled per sweep invocation.
	SweepBatchSize = 100

	// WithdrawalRollingWindow is the lookback for the daily limit.
	WithdrawalRollingWindow = 24 * time.Hour
)
