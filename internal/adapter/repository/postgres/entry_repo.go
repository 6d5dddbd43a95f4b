package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ovik/wagerd/internal/domain"
	"github.com/ovik/wagerd/internal/usecase"
)

const pgErrUniqueViolation = "23505"

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// Create inserts an entry. The unique index on (wager_id, user_id) is the
// authoritative one-entry-per-user guard; a violation maps to
// domain.ErrAlreadyJoined.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO entries (id, wager_id, user_id, side, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := pgxTx.Exec(ctx, query,
		entry.ID,
		entry.WagerID,
		entry.UserID,
		entry.Side,
		entry.Amount,
		entry.CreatedAt,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
		return domain.ErrAlreadyJoined
	}

	return err
}

// Exists reports whether the user already entered the wager.
func (r *EntryRepository) Exists(ctx context.Context, wagerID, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM entries WHERE wager_id = $1 AND user_id = $2)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, wagerID, userID).Scan(&exists)

	return exists, err
}

// ListByWager lists all entries of a wager.
func (r *EntryRepository) ListByWager(ctx context.Context, wagerID string) ([]*domain.Entry, error) {
	query := `
		SELECT id, wager_id, user_id, side, amount, created_at
		FROM entries
		WHERE wager_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, wagerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListByWagerForUpdate lists a wager's entries with FOR UPDATE locks, for
// settlement inside a transaction.
func (r *EntryRepository) ListByWagerForUpdate(ctx context.Context, tx usecase.Transaction, wagerID string) ([]*domain.Entry, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		SELECT id, wager_id, user_id, side, amount, created_at
		FROM entries
		WHERE wager_id = $1
		ORDER BY created_at ASC
		FOR UPDATE
	`

	rows, err := pgxTx.Query(ctx, query, wagerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListByUser lists a user's entries, newest first.
func (r *EntryRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Entry, error) {
	query := `
		SELECT id, wager_id, user_id, side, amount, created_at
		FROM entries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows pgx.Rows) ([]*domain.Entry, error) {
	var entries []*domain.Entry
	for rows.Next() {
		var entry domain.Entry
		err := rows.Scan(
			&entry.ID,
			&entry.WagerID,
			&entry.UserID,
			&entry.Side,
			&entry.Amount,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
