package usecase

import (
	"context"
	"time"

	"github.com/ovik/wagerd/internal/domain"
	"github.com/ovik/wagerd/internal/infrastructure/metrics"
)

// LedgerUseCase is the only component permitted to move money. Every
// adjustment is a single conditional UPDATE on the balance paired with an
// immutable transaction record, committed together.
type LedgerUseCase struct {
	txManager TransactionManager
	userRepo  UserRepository
	txnRepo   TransactionRepository
	dedup     DedupStore
	idGen     IDGenerator
	metrics   *metrics.Metrics
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	userRepo UserRepository,
	txnRepo TransactionRepository,
	dedup DedupStore,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager: txManager,
		userRepo:  userRepo,
		txnRepo:   txnRepo,
		dedup:     dedup,
		idGen:     idGen,
		metrics:   metrics,
	}
}

// Adjust applies a signed delta to a user's balance and records the
// movement. delta must be non-zero; a negative delta that would overdraw
// the balance fails with domain.ErrInsufficientBalance and no effect.
func (uc *LedgerUseCase) Adjust(ctx context.Context, userID string, delta int64, txType domain.TransactionType, reference string) (int64, error) {
	if delta == 0 {
		return 0, domain.ErrInvalidAmount
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	newBalance, err := uc.userRepo.AdjustBalance(txCtx, tx, userID, delta)
	if err != nil {
		return 0, err
	}

	txn := &domain.Transaction{
		ID:        uc.idGen.Generate(),
		UserID:    userID,
		Type:      txType,
		Amount:    delta,
		Reference: reference,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.txnRepo.Create(txCtx, tx, txn); err != nil {
		return 0, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return 0, err
	}

	if uc.metrics != nil {
		uc.metrics.LedgerAdjustments.WithLabelValues(string(txType)).Inc()
	}

	return newBalance, nil
}

// RecordDeposit credits a confirmed external deposit, deduplicated by the
// payment processor's reference so a redelivered webhook credits once.
func (uc *LedgerUseCase) RecordDeposit(ctx context.Context, userID string, amount int64, reference string) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	dedupKey := "deposit:" + reference
	marked := false
	if uc.dedup != nil {
		first, err := uc.dedup.MarkOnce(ctx, dedupKey, DedupTTL)
		if err == nil && !first {
			user, err := uc.userRepo.GetByID(ctx, userID)
			if err != nil {
				return 0, err
			}
			return user.Balance, nil
		}
		marked = err == nil
	}

	balance, err := uc.Adjust(ctx, userID, amount, domain.TransactionTypeDeposit, reference)
	if err != nil {
		// The credit did not happen; release the mark so the processor's
		// redelivery is not swallowed.
		if marked {
			_ = uc.dedup.Forget(ctx, dedupKey)
		}
		return 0, err
	}
	return balance, nil
}

// GetBalance returns the authoritative stored balance.
func (uc *LedgerUseCase) GetBalance(ctx context.Context, userID string) (int64, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.Balance, nil
}

// ListTransactions lists a user's ledger history, newest first.
func (uc *LedgerUseCase) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return uc.txnRepo.ListByUser(ctx, userID, limit, offset)
}

// CheckConsistency reports how many users have a balance that disagrees
// with the sum of their transactions. Zero means the ledger invariant
// holds everywhere.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (int64, error) {
	return uc.txnRepo.CheckConsistency(ctx)
}
