package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ovik/wagerd/internal/domain"
	"github.com/ovik/wagerd/internal/infrastructure/metrics"
)

// WithdrawalUseCase reserves funds before any external call and
// reconciles the asynchronous outcome. Any failure after the reservation
// issues an equal compensating credit before the error surfaces.
type WithdrawalUseCase struct {
	txManager      TransactionManager
	withdrawalRepo WithdrawalRepository
	userRepo       UserRepository
	txnRepo        TransactionRepository
	ledger         *LedgerUseCase
	transfers      TransferClient
	dedup          DedupStore
	notifier       Notifier
	settings       SettingsProvider
	idGen          IDGenerator
	metrics        *metrics.Metrics
	logger         zerolog.Logger
}

// NewWithdrawalUseCase creates a new WithdrawalUseCase.
func NewWithdrawalUseCase(
	txManager TransactionManager,
	withdrawalRepo WithdrawalRepository,
	userRepo UserRepository,
	txnRepo TransactionRepository,
	ledger *LedgerUseCase,
	transfers TransferClient,
	dedup DedupStore,
	notifier Notifier,
	settings SettingsProvider,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *WithdrawalUseCase {
	return &WithdrawalUseCase{
		txManager:      txManager,
		withdrawalRepo: withdrawalRepo,
		userRepo:       userRepo,
		txnRepo:        txnRepo,
		ledger:         ledger,
		transfers:      transfers,
		dedup:          dedup,
		notifier:       notifier,
		settings:       settings,
		idGen:          idGen,
		metrics:        metrics,
		logger:         logger,
	}
}

// RequestWithdrawal validates limits, reserves the amount, then asks the
// transfer processor to pay out. The returned withdrawal is `processing`
// on success; final completion arrives via HandleTransferCallback.
func (uc *WithdrawalUseCase) RequestWithdrawal(ctx context.Context, userID string, amount int64, account domain.BankAccount) (*domain.Withdrawal, error) {
	snapshot := uc.settings.Snapshot()
	now := time.Now().UTC()

	w := &domain.Withdrawal{
		ID:          uc.idGen.Generate(),
		UserID:      userID,
		Amount:      amount,
		Status:      domain.WithdrawalStatusPending,
		BankAccount: account,
		Reference:   uuid.NewString(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if amount < snapshot.MinWithdrawal {
		return nil, fmt.Errorf("%w: minimum is %d", domain.ErrInvalidAmount, snapshot.MinWithdrawal)
	}
	if amount > snapshot.MaxWithdrawal {
		return nil, fmt.Errorf("%w: per-transaction maximum is %d", domain.ErrWithdrawalLimitExceeded, snapshot.MaxWithdrawal)
	}

	used, err := uc.rollingWithdrawn(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if used+amount > snapshot.DailyWithdrawalLimit {
		return nil, fmt.Errorf("%w: daily limit is %d, %d already withdrawn", domain.ErrWithdrawalLimitExceeded, snapshot.DailyWithdrawalLimit, used)
	}

	// Reserve: pending row, balance debit and ledger record commit
	// together. Only after this does anything leave the process.
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.withdrawalRepo.Create(txCtx, tx, w); err != nil {
		return nil, err
	}
	if _, err := uc.userRepo.AdjustBalance(txCtx, tx, userID, -amount); err != nil {
		return nil, err
	}
	txn := &domain.Transaction{
		ID:        uc.idGen.Generate(),
		UserID:    userID,
		Type:      domain.TransactionTypeWithdrawal,
		Amount:    -amount,
		Reference: w.Reference,
		CreatedAt: now,
	}
	if err := uc.txnRepo.Create(txCtx, tx, txn); err != nil {
		return nil, err
	}
	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if _, err := uc.withdrawalRepo.UpdateStatusIf(ctx, w.ID,
		domain.WithdrawalStatusPending, domain.WithdrawalStatusProcessing, "", time.Now().UTC()); err != nil {
		// Funds are reserved but the row is stuck in pending; surface for
		// reconciliation rather than guessing.
		uc.logger.Error().Err(err).Str("withdrawal_id", w.ID).Msg("failed to mark withdrawal processing after reservation")
		return nil, err
	}
	w.Status = domain.WithdrawalStatusProcessing

	if uc.metrics != nil {
		uc.metrics.WithdrawalsRequested.Inc()
	}

	recipientCode, err := uc.transfers.CreateRecipient(ctx, account)
	if err != nil {
		return nil, uc.failAndRefund(ctx, w, fmt.Sprintf("recipient creation failed: %v", err))
	}
	w.RecipientCode = recipientCode

	transferCode, err := uc.transfers.InitiateTransfer(ctx, recipientCode, amount, w.Reference)
	if err != nil {
		return nil, uc.failAndRefund(ctx, w, fmt.Sprintf("transfer initiation failed: %v", err))
	}
	w.TransferCode = transferCode

	if err := uc.withdrawalRepo.SetTransferCodes(ctx, w.ID, recipientCode, transferCode, time.Now().UTC()); err != nil {
		uc.logger.Error().Err(err).Str("withdrawal_id", w.ID).Msg("failed to persist transfer codes")
	}

	return w, nil
}

// HandleTransferCallback applies the processor's asynchronous verdict for
// a processing withdrawal. Deliveries are deduplicated by reference and
// guarded by a status compare-and-swap, so redelivered webhooks are
// no-ops and a failure never refunds twice.
func (uc *WithdrawalUseCase) HandleTransferCallback(ctx context.Context, reference string, success bool, reason string) error {
	dedupKey := fmt.Sprintf("transfer:%s:%t", reference, success)
	marked := false
	if uc.dedup != nil {
		first, err := uc.dedup.MarkOnce(ctx, dedupKey, DedupTTL)
		switch {
		case err != nil:
			uc.logger.Warn().Err(err).Str("reference", reference).Msg("webhook dedup unavailable, relying on status guard")
		case !first:
			return nil
		default:
			marked = true
		}
	}

	err := uc.handleTransferCallback(ctx, reference, success, reason)
	if err != nil && marked {
		// Processing failed after a fresh mark; release it so the
		// redelivered callback gets another attempt.
		_ = uc.dedup.Forget(ctx, dedupKey)
	}
	return err
}

func (uc *WithdrawalUseCase) handleTransferCallback(ctx context.Context, reference string, success bool, reason string) error {
	w, err := uc.withdrawalRepo.GetByReference(ctx, reference)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	if success {
		ok, err := uc.withdrawalRepo.UpdateStatusIf(ctx, w.ID,
			domain.WithdrawalStatusProcessing, domain.WithdrawalStatusCompleted, "", now)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if uc.metrics != nil {
			uc.metrics.WithdrawalsCompleted.Inc()
		}
		uc.notify(ctx, w.UserID, domain.EventWithdrawalCompleted, w)
		return nil
	}

	if reason == "" {
		reason = "transfer failed"
	}
	ok, err := uc.withdrawalRepo.UpdateStatusIf(ctx, w.ID,
		domain.WithdrawalStatusProcessing, domain.WithdrawalStatusFailed, reason, now)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	uc.refund(ctx, w)
	uc.notify(ctx, w.UserID, domain.EventWithdrawalFailed, w)
	return nil
}

// failAndRefund marks the withdrawal failed and issues the compensating
// credit, then returns the surfaced error.
func (uc *WithdrawalUseCase) failAndRefund(ctx context.Context, w *domain.Withdrawal, reason string) error {
	ok, err := uc.withdrawalRepo.UpdateStatusIf(ctx, w.ID,
		domain.WithdrawalStatusProcessing, domain.WithdrawalStatusFailed, reason, time.Now().UTC())
	if err != nil {
		uc.logger.Error().Err(err).Str("withdrawal_id", w.ID).Msg("failed to mark withdrawal failed; manual reconciliation required")
		return fmt.Errorf("%w: %s", domain.ErrTransferRejected, reason)
	}
	if ok {
		uc.refund(ctx, w)
	}
	return fmt.Errorf("%w: %s", domain.ErrTransferRejected, reason)
}

// refund credits back the reserved amount. A failure here means money is
// in limbo: log at the highest severity for manual reconciliation.
func (uc *WithdrawalUseCase) refund(ctx context.Context, w *domain.Withdrawal) {
	if _, err := uc.ledger.Adjust(ctx, w.UserID, w.Amount, domain.TransactionTypeWithdrawalReversal, w.Reference); err != nil {
		uc.logger.Error().
			Err(err).
			Str("withdrawal_id", w.ID).
			Str("user_id", w.UserID).
			Int64("amount", w.Amount).
			Msg("COMPENSATING REFUND FAILED, manual reconciliation required")
		return
	}
	if uc.metrics != nil {
		uc.metrics.WithdrawalsFailed.Inc()
	}
}

// rollingWithdrawn is the net amount withdrawn in the rolling window:
// reservations minus compensating reversals, so failed withdrawals do not
// consume the limit.
func (uc *WithdrawalUseCase) rollingWithdrawn(ctx context.Context, userID string, now time.Time) (int64, error) {
	since := now.Add(-WithdrawalRollingWindow)

	withdrawn, err := uc.txnRepo.SumByUserAndTypeSince(ctx, userID, domain.TransactionTypeWithdrawal, since)
	if err != nil {
		return 0, err
	}
	reversed, err := uc.txnRepo.SumByUserAndTypeSince(ctx, userID, domain.TransactionTypeWithdrawalReversal, since)
	if err != nil {
		return 0, err
	}

	net := withdrawn - reversed
	if net < 0 {
		net = 0
	}
	return net, nil
}

// GetWithdrawal fetches one withdrawal.
func (uc *WithdrawalUseCase) GetWithdrawal(ctx context.Context, id string) (*domain.Withdrawal, error) {
	return uc.withdrawalRepo.GetByID(ctx, id)
}

// ListWithdrawals lists a user's withdrawals, newest first.
func (uc *WithdrawalUseCase) ListWithdrawals(ctx context.Context, userID string, limit, offset int) ([]*domain.Withdrawal, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return uc.withdrawalRepo.ListByUser(ctx, userID, limit, offset)
}

func (uc *WithdrawalUseCase) notify(ctx context.Context, userID, event string, w *domain.Withdrawal) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.Notify(ctx, userID, event, map[string]any{
		"withdrawal_id": w.ID,
		"amount":        w.Amount,
		"reference":     w.Reference,
	}); err != nil {
		uc.logger.Warn().Err(err).Str("user_id", userID).Str("event", event).Msg("notification failed")
	}
}
