package usecase

import (
	"context"
	"time"

	"github.com/ovik/wagerd/internal/domain"
)

// UserRepository defines data access for users and their balances.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// AdjustBalance applies a signed delta as a single conditional UPDATE.
	// It returns the new balance, domain.ErrInsufficientBalance when the
	// delta would drive the balance negative, or domain.ErrUserNotFound.
	AdjustBalance(ctx context.Context, tx Transaction, userID string, delta int64) (int64, error)
}

// WagerRepository defines data access for wagers.
type WagerRepository interface {
	Create(ctx context.Context, wager *domain.Wager) error
	GetByID(ctx context.Context, id string) (*domain.Wager, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Wager, error)
	List(ctx context.Context, filter WagerFilter) ([]*domain.Wager, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Wager, error)
	ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]*domain.Wager, error)
	ListUnsettledResolved(ctx context.Context, limit int) ([]*domain.Wager, error)
	// UpdateStatusIf transitions status only when the current status is in
	// from, optionally setting the winning side. It reports whether a row
	// was updated; false means another caller won the transition.
	UpdateStatusIf(ctx context.Context, tx Transaction, id string, from []domain.WagerStatus, to domain.WagerStatus, winningSide *domain.Side, at time.Time) (bool, error)
}

// WagerFilter narrows List results.
type WagerFilter struct {
	Status *domain.WagerStatus
	Limit  int
	Offset int
}

// EntryRepository defines data access for wager entries.
type EntryRepository interface {
	// Create inserts an entry; the (wager_id, user_id) unique index maps
	// to domain.ErrAlreadyJoined.
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	Exists(ctx context.Context, wagerID, userID string) (bool, error)
	ListByWager(ctx context.Context, wagerID string) ([]*domain.Entry, error)
	ListByWagerForUpdate(ctx context.Context, tx Transaction, wagerID string) ([]*domain.Entry, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Entry, error)
}

// TransactionRepository defines data access for the append-only ledger log.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error)
	// SumByUserAndTypeSince returns the absolute sum of movements of the
	// given type since the cutoff; used for rolling withdrawal limits.
	SumByUserAndTypeSince(ctx context.Context, userID string, txType domain.TransactionType, since time.Time) (int64, error)
	// CheckConsistency compares every stored balance against the sum of
	// that user's transactions and returns the number of mismatched users.
	CheckConsistency(ctx context.Context) (int64, error)
}

// WithdrawalRepository defines data access for withdrawals.
type WithdrawalRepository interface {
	Create(ctx context.Context, tx Transaction, w *domain.Withdrawal) error
	GetByID(ctx context.Context, id string) (*domain.Withdrawal, error)
	GetByReference(ctx context.Context, reference string) (*domain.Withdrawal, error)
	// UpdateStatusIf transitions status only from the expected state,
	// reporting whether a row changed. failureReason may be empty.
	UpdateStatusIf(ctx context.Context, id string, from, to domain.WithdrawalStatus, failureReason string, at time.Time) (bool, error)
	SetTransferCodes(ctx context.Context, id, recipientCode, transferCode string, at time.Time) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Withdrawal, error)
}

// SettingRepository loads raw polymorphic settings rows.
type SettingRepository interface {
	List(ctx context.Context) ([]domain.Setting, int64, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation that failed with a transient storage
// error, such as a deadlock between two settlement transactions.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// retryWith runs op through r when a retrier is configured.
func retryWith(ctx context.Context, r Retrier, op func() error) error {
	if r == nil {
		return op()
	}
	return r.Retry(ctx, op)
}

// Cache is a read-through cache over a shared store. Implementations must
// degrade to calling the loader directly when the store is unavailable;
// the cache is an optimization, never a correctness dependency.
type Cache interface {
	GetOrFetch(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error)
	Delete(ctx context.Context, keys ...string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// RateLimitResult is the outcome of one fixed-window check.
type RateLimitResult struct {
	Allowed   bool
	Remaining int64
	ResetAt   time.Time
}

// RateLimiter counts requests per identifier and endpoint in fixed windows.
type RateLimiter interface {
	Check(ctx context.Context, identifier, endpoint string, limit int64, window time.Duration) (RateLimitResult, error)
}

// TransferClient is the external transfer processor boundary. Completion
// of an initiated transfer arrives asynchronously via webhook, keyed by
// the withdrawal reference.
type TransferClient interface {
	CreateRecipient(ctx context.Context, account domain.BankAccount) (string, error)
	InitiateTransfer(ctx context.Context, recipientCode string, amount int64, reference string) (string, error)
}

// OutcomeResolver proposes a winning side for an expired wager.
type OutcomeResolver interface {
	ProposeOutcome(ctx context.Context, wager *domain.Wager) (*domain.OutcomeProposal, error)
}

// Notifier dispatches user notifications. Fire-and-forget: callers log
// failures and move on.
type Notifier interface {
	Notify(ctx context.Context, userID, event string, payload map[string]any) error
}

// DedupStore marks webhook references as seen, atomically.
type DedupStore interface {
	// MarkOnce returns true the first time key is seen within ttl.
	MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Forget releases a marked key so a redelivery can be processed.
	// Callers use it when the work behind a fresh mark failed.
	Forget(ctx context.Context, key string) error
}

// SettingsProvider hands out the current immutable settings snapshot.
type SettingsProvider interface {
	Snapshot() domain.Settings
}
