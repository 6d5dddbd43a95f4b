package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ovik/wagerd/internal/domain"
	"github.com/ovik/wagerd/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository over the
// append-only ledger log.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create appends a ledger record.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO transactions (id, user_id, type, amount, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := pgxTx.Exec(ctx, query,
		txn.ID,
		txn.UserID,
		txn.Type,
		txn.Amount,
		txn.Reference,
		txn.CreatedAt,
	)

	return err
}

// ListByUser lists a user's ledger records, newest first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error) {
	query := `
		SELECT id, user_id, type, amount, reference, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		var txn domain.Transaction
		err := rows.Scan(
			&txn.ID,
			&txn.UserID,
			&txn.Type,
			&txn.Amount,
			&txn.Reference,
			&txn.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		txns = append(txns, &txn)
	}

	return txns, rows.Err()
}

// SumByUserAndTypeSince returns the absolute sum of movements of one type
// since the cutoff.
func (r *TransactionRepository) SumByUserAndTypeSince(ctx context.Context, userID string, txType domain.TransactionType, since time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(ABS(amount)), 0)
		FROM transactions
		WHERE user_id = $1 AND type = $2 AND created_at >= $3
	`

	var sum int64
	err := r.pool.QueryRow(ctx, query, userID, txType, since).Scan(&sum)

	return sum, err
}

// CheckConsistency counts users whose stored balance disagrees with the
// sum of their ledger records.
func (r *TransactionRepository) CheckConsistency(ctx context.Context) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM users u
		WHERE u.balance <> COALESCE(
			(SELECT SUM(t.amount) FROM transactions t WHERE t.user_id = u.id), 0
		)
	`

	var mismatched int64
	err := r.pool.QueryRow(ctx, query).Scan(&mismatched)

	return mismatched, err
}
