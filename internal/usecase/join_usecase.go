package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ovik/wagerd/internal/domain"
	"github.com/ovik/wagerd/internal/infrastructure/metrics"
)

// JoinUseCase coordinates a user entering a wager: one database
// transaction covers the balance debit, the entry insert, and the ledger
// record. The unique index on (wager_id, user_id) closes the race two
// concurrent joins for the same user would otherwise win together; a
// constraint failure rolls the debit back with the transaction.
type JoinUseCase struct {
	txManager TransactionManager
	wagerRepo WagerRepository
	entryRepo EntryRepository
	userRepo  UserRepository
	txnRepo   TransactionRepository
	cache     Cache
	notifier  Notifier
	idGen     IDGenerator
	retrier   Retrier
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewJoinUseCase creates a new JoinUseCase.
func NewJoinUseCase(
	txManager TransactionManager,
	wagerRepo WagerRepository,
	entryRepo EntryRepository,
	userRepo UserRepository,
	txnRepo TransactionRepository,
	cache Cache,
	notifier Notifier,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *JoinUseCase {
	return &JoinUseCase{
		txManager: txManager,
		wagerRepo: wagerRepo,
		entryRepo: entryRepo,
		userRepo:  userRepo,
		txnRepo:   txnRepo,
		cache:     cache,
		notifier:  notifier,
		idGen:     idGen,
		metrics:   metrics,
		logger:    logger,
	}
}

// WithRetrier retries the join transaction on transient storage errors.
func (uc *JoinUseCase) WithRetrier(r Retrier) *JoinUseCase {
	uc.retrier = r
	return uc
}

// Join stakes the wager's fixed amount for userID on side.
func (uc *JoinUseCase) Join(ctx context.Context, wagerID, userID string, side domain.Side) (*domain.Entry, error) {
	var entry *domain.Entry
	err := retryWith(ctx, uc.retrier, func() error {
		e, err := uc.join(ctx, wagerID, userID, side)
		if err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (uc *JoinUseCase) join(ctx context.Context, wagerID, userID string, side domain.Side) (*domain.Entry, error) {
	if !side.Valid() {
		return nil, domain.ErrInvalidSide
	}

	now := time.Now().UTC()

	// Advisory pre-checks. Each is re-enforced inside the transaction:
	// status via the locked wager row, duplicates via the unique index,
	// funds via the conditional balance update.
	wager, err := uc.wagerRepo.GetByID(ctx, wagerID)
	if err != nil {
		return nil, err
	}
	if !wager.Joinable(now) {
		return nil, domain.ErrWagerNotJoinable
	}

	joined, err := uc.entryRepo.Exists(ctx, wagerID, userID)
	if err != nil {
		return nil, err
	}
	if joined {
		return nil, domain.ErrAlreadyJoined
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.CanAfford(wager.Amount) {
		return nil, domain.ErrInsufficientBalance
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	locked, err := uc.wagerRepo.GetByIDForUpdate(txCtx, tx, wagerID)
	if err != nil {
		return nil, err
	}
	if !locked.Joinable(now) {
		return nil, domain.ErrWagerNotJoinable
	}

	// Debit first: an entry without a matching debit would let a user
	// stake money they never paid. The rollback above is the equal and
	// opposite compensation if the insert below fails.
	if _, err := uc.userRepo.AdjustBalance(txCtx, tx, userID, -locked.Amount); err != nil {
		return nil, err
	}

	entry := &domain.Entry{
		ID:        uc.idGen.Generate(),
		WagerID:   wagerID,
		UserID:    userID,
		Side:      side,
		Amount:    locked.Amount,
		CreatedAt: now,
	}
	if err := uc.entryRepo.Create(txCtx, tx, entry); err != nil {
		return nil, err
	}

	txn := &domain.Transaction{
		ID:        uc.idGen.Generate(),
		UserID:    userID,
		Type:      domain.TransactionTypeWagerJoin,
		Amount:    -locked.Amount,
		Reference: wagerID,
		CreatedAt: now,
	}
	if err := uc.txnRepo.Create(txCtx, tx, txn); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.JoinsTotal.Inc()
	}

	uc.invalidateWagerCaches(ctx, wagerID, userID)

	if uc.notifier != nil {
		if err := uc.notifier.Notify(ctx, userID, domain.EventWagerJoined, map[string]any{
			"wager_id": wagerID,
			"side":     string(side),
			"amount":   locked.Amount,
		}); err != nil {
			uc.logger.Warn().Err(err).Str("wager_id", wagerID).Msg("join notification failed")
		}
	}

	return entry, nil
}

func (uc *JoinUseCase) invalidateWagerCaches(ctx context.Context, wagerID, userID string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Delete(ctx, WagerDetailKey+wagerID); err != nil {
		uc.logger.Warn().Err(err).Str("wager_id", wagerID).Msg("cache invalidation failed")
	}
	if err := uc.cache.DeleteByPrefix(ctx, WagerListPrefix); err != nil {
		uc.logger.Warn().Err(err).Msg("wager list cache invalidation failed")
	}
	if err := uc.cache.DeleteByPrefix(ctx, UserWagersPrefix+userID+":"); err != nil {
		uc.logger.Warn().Err(err).Str("user_id", userID).Msg("user wagers cache invalidation failed")
	}
}
