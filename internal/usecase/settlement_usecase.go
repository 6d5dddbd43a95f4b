package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/ovik/wagerd/internal/domain"
	"github.com/ovik/wagerd/internal/infrastructure/metrics"
)

// SettlementUseCase owns the wager state machine:
//
//	open -> resolved -> settled
//	open | resolved  -> refunded
//
// Settled and refunded are terminal. Every transition is guarded by a
// row lock plus a compare-and-swap on status inside one transaction, so
// concurrent triggers (manual admin action racing the sweeper) distribute
// the pool at most once.
type SettlementUseCase struct {
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

// NewSettlementUseCase creates a new SettlementUseCase.
func NewSettlementUseCase(
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
) *SettlementUseCase {
	return &SettlementUseCase{
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

// Resolve declares the winning side of an open wager. Resolving an
// already-resolved wager with the same side is a no-op; a different side
// fails with domain.ErrAlreadyResolved.
func (uc *SettlementUseCase) Resolve(ctx context.Context, wagerID string, winningSide domain.Side) error {
	if !winningSide.Valid() {
		return domain.ErrInvalidSide
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	wager, err := uc.wagerRepo.GetByIDForUpdate(txCtx, tx, wagerID)
	if err != nil {
		return err
	}

	switch wager.Status {
	case domain.WagerStatusOpen:
		// fall through to the transition
	case domain.WagerStatusResolved:
		if wager.WinningSide != nil && *wager.WinningSide == winningSide {
			return nil
		}
		return domain.ErrAlreadyResolved
	default:
		return domain.ErrAlreadyResolved
	}

	now := time.Now().UTC()
	ok, err := uc.wagerRepo.UpdateStatusIf(txCtx, tx, wagerID,
		[]domain.WagerStatus{domain.WagerStatusOpen},
		domain.WagerStatusResolved, &winningSide, now)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAlreadyResolved
	}

	if err := tx.Commit(txCtx); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.ResolutionsTotal.Inc()
	}

	uc.invalidate(ctx, wagerID, nil)
	uc.notifyEntrants(ctx, wagerID, domain.EventWagerResolved, map[string]any{
		"wager_id":     wagerID,
		"winning_side": string(winningSide),
	})

	return nil
}

// WithRetrier retries settlement transactions on transient storage
// errors. Retrying is safe: the status compare-and-swap makes a repeated
// attempt against an already-settled wager a clean rejection.
func (uc *SettlementUseCase) WithRetrier(r Retrier) *SettlementUseCase {
	uc.retrier = r
	return uc
}

// Settle distributes a resolved wager's pool to the winning side. When
// the winning side has no entries, no market was formed: the wager is
// refunded in full instead and no fee is taken.
func (uc *SettlementUseCase) Settle(ctx context.Context, wagerID string) error {
	return retryWith(ctx, uc.retrier, func() error {
		return uc.settle(ctx, wagerID)
	})
}

func (uc *SettlementUseCase) settle(ctx context.Context, wagerID string) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	wager, err := uc.wagerRepo.GetByIDForUpdate(txCtx, tx, wagerID)
	if err != nil {
		return err
	}
	if wager.Status != domain.WagerStatusResolved || wager.WinningSide == nil {
		return domain.ErrWagerNotSettleable
	}

	entries, err := uc.entryRepo.ListByWagerForUpdate(txCtx, tx, wagerID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	plan, err := domain.PlanSettlement(entries, *wager.WinningSide, wager.FeePercentage)
	if errors.Is(err, domain.ErrEmptyWinningSide) {
		return uc.refundLocked(txCtx, tx, wager, entries, now)
	}
	if err != nil {
		return err
	}

	for _, payout := range plan.Payouts {
		if payout.Amount == 0 {
			continue
		}
		if _, err := uc.userRepo.AdjustBalance(txCtx, tx, payout.UserID, payout.Amount); err != nil {
			return err
		}
		txn := &domain.Transaction{
			ID:        uc.idGen.Generate(),
			UserID:    payout.UserID,
			Type:      domain.TransactionTypeWagerSettled,
			Amount:    payout.Amount,
			Reference: wagerID,
			CreatedAt: now,
		}
		if err := uc.txnRepo.Create(txCtx, tx, txn); err != nil {
			return err
		}
	}

	ok, err := uc.wagerRepo.UpdateStatusIf(txCtx, tx, wagerID,
		[]domain.WagerStatus{domain.WagerStatusResolved},
		domain.WagerStatusSettled, nil, now)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrWagerNotSettleable
	}

	if err := tx.Commit(txCtx); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.SettlementsTotal.Inc()
		uc.metrics.SettledPool.Observe(float64(plan.Pool))
	}

	uc.logger.Info().
		Str("wager_id", wagerID).
		Int64("pool", plan.Pool).
		Int64("fee", plan.Fee).
		Int("winners", len(plan.Payouts)).
		Msg("wager settled")

	uc.invalidate(ctx, wagerID, entries)
	uc.notifyEntrants(ctx, wagerID, domain.EventWagerSettled, map[string]any{
		"wager_id": wagerID,
	})

	return nil
}

// Refund returns every entrant's exact stake. Allowed from open and
// resolved; terminal states fail with domain.ErrWagerNotRefundable.
func (uc *SettlementUseCase) Refund(ctx context.Context, wagerID string) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	wager, err := uc.wagerRepo.GetByIDForUpdate(txCtx, tx, wagerID)
	if err != nil {
		return err
	}
	if wager.Status != domain.WagerStatusOpen && wager.Status != domain.WagerStatusResolved {
		return domain.ErrWagerNotRefundable
	}

	entries, err := uc.entryRepo.ListByWagerForUpdate(txCtx, tx, wagerID)
	if err != nil {
		return err
	}

	return uc.refundLocked(txCtx, tx, wager, entries, time.Now().UTC())
}

// refundLocked credits every entrant their stake and flips the wager to
// refunded. The caller holds the wager row lock; tx is committed here.
func (uc *SettlementUseCase) refundLocked(ctx context.Context, tx Transaction, wager *domain.Wager, entries []*domain.Entry, now time.Time) error {
	for _, e := range entries {
		if _, err := uc.userRepo.AdjustBalance(ctx, tx, e.UserID, e.Amount); err != nil {
			return err
		}
		txn := &domain.Transaction{
			ID:        uc.idGen.Generate(),
			UserID:    e.UserID,
			Type:      domain.TransactionTypeWagerRefund,
			Amount:    e.Amount,
			Reference: wager.ID,
			CreatedAt: now,
		}
		if err := uc.txnRepo.Create(ctx, tx, txn); err != nil {
			return err
		}
	}

	ok, err := uc.wagerRepo.UpdateStatusIf(ctx, tx, wager.ID,
		[]domain.WagerStatus{domain.WagerStatusOpen, domain.WagerStatusResolved},
		domain.WagerStatusRefunded, nil, now)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrWagerNotRefundable
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.RefundsTotal.Inc()
	}

	uc.logger.Info().
		Str("wager_id", wager.ID).
		Int("entrants", len(entries)).
		Msg("wager refunded")

	uc.invalidate(ctx, wager.ID, entries)
	uc.notifyEntrants(ctx, wager.ID, domain.EventWagerRefunded, map[string]any{
		"wager_id": wager.ID,
	})

	return nil
}

func (uc *SettlementUseCase) invalidate(ctx context.Context, wagerID string, entries []*domain.Entry) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Delete(ctx, WagerDetailKey+wagerID); err != nil {
		uc.logger.Warn().Err(err).Str("wager_id", wagerID).Msg("cache invalidation failed")
	}
	if err := uc.cache.DeleteByPrefix(ctx, WagerListPrefix); err != nil {
		uc.logger.Warn().Err(err).Msg("wager list cache invalidation failed")
	}
	for _, e := range entries {
		if err := uc.cache.DeleteByPrefix(ctx, UserWagersPrefix+e.UserID+":"); err != nil {
			uc.logger.Warn().Err(err).Str("user_id", e.UserID).Msg("user wagers cache invalidation failed")
		}
	}
}

func (uc *SettlementUseCase) notifyEntrants(ctx context.Context, wagerID, event string, payload map[string]any) {
	if uc.notifier == nil {
		return
	}
	entries, err := uc.entryRepo.ListByWager(ctx, wagerID)
	if err != nil {
		uc.logger.Warn().Err(err).Str("wager_id", wagerID).Msg("listing entrants for notification failed")
		return
	}
	for _, e := range entries {
		if err := uc.notifier.Notify(ctx, e.UserID, event, payload); err != nil {
			uc.logger.Warn().Err(err).Str("user_id", e.UserID).Str("event", event).Msg("notification failed")
		}
	}
}
