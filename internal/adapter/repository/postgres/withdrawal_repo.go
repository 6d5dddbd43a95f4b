package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ovik/wagerd/internal/domain"
	"github.com/ovik/wagerd/internal/usecase"
)

const withdrawalColumns = `id, user_id, amount, status, account_number, bank_code,
	account_name, reference, recipient_code, transfer_code, failure_reason,
	created_at, updated_at`

// WithdrawalRepository implements usecase.WithdrawalRepository.
type WithdrawalRepository struct {
	pool *pgxpool.Pool
}

// NewWithdrawalRepository creates a new WithdrawalRepository.
func NewWithdrawalRepository(pool *pgxpool.Pool) *WithdrawalRepository {
	return &WithdrawalRepository{pool: pool}
}

// Create inserts a withdrawal inside the reservation transaction.
func (r *WithdrawalRepository) Create(ctx context.Context, tx usecase.Transaction, w *domain.Withdrawal) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO withdrawals (` + withdrawalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := pgxTx.Exec(ctx, query,
		w.ID,
		w.UserID,
		w.Amount,
		w.Status,
		w.BankAccount.AccountNumber,
		w.BankAccount.BankCode,
		w.BankAccount.AccountName,
		w.Reference,
		w.RecipientCode,
		w.TransferCode,
		w.FailureReason,
		w.CreatedAt,
		w.UpdatedAt,
	)

	return err
}

// GetByID retrieves a withdrawal by ID.
func (r *WithdrawalRepository) GetByID(ctx context.Context, id string) (*domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE id = $1`

	w, err := scanWithdrawal(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrWithdrawalNotFound
	}

	return w, err
}

// GetByReference retrieves a withdrawal by its processor reference.
func (r *WithdrawalRepository) GetByReference(ctx context.Context, reference string) (*domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE reference = $1`

	w, err := scanWithdrawal(r.pool.QueryRow(ctx, query, reference))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrWithdrawalNotFound
	}

	return w, err
}

// UpdateStatusIf transitions status only from the expected state.
func (r *WithdrawalRepository) UpdateStatusIf(ctx context.Context, id string, from, to domain.WithdrawalStatus, failureReason string, at time.Time) (bool, error) {
	query := `
		UPDATE withdrawals
		SET status = $3,
		    failure_reason = CASE WHEN $4 = '' THEN failure_reason ELSE $4 END,
		    updated_at = $5
		WHERE id = $1 AND status = $2
	`

	tag, err := r.pool.Exec(ctx, query, id, from, to, failureReason, at)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// SetTransferCodes stores the processor's recipient and transfer codes.
func (r *WithdrawalRepository) SetTransferCodes(ctx context.Context, id, recipientCode, transferCode string, at time.Time) error {
	query := `
		UPDATE withdrawals
		SET recipient_code = $2, transfer_code = $3, updated_at = $4
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query, id, recipientCode, transferCode, at)

	return err
}

// ListByUser lists a user's withdrawals, newest first.
func (r *WithdrawalRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Withdrawal, error) {
	query := `
		SELECT ` + withdrawalColumns + `
		FROM withdrawals
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var withdrawals []*domain.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, w)
	}

	return withdrawals, rows.Err()
}

func scanWithdrawal(row pgx.Row) (*domain.Withdrawal, error) {
	var w domain.Withdrawal
	err := row.Scan(
		&w.ID,
		&w.UserID,
		&w.Amount,
		&w.Status,
		&w.BankAccount.AccountNumber,
		&w.BankAccount.BankCode,
		&w.BankAccount.AccountName,
		&w.Reference,
		&w.RecipientCode,
		&w.TransferCode,
		&w.FailureReason,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &w, nil
}
