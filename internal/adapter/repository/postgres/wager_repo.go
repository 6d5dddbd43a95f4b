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

const wagerColumns = `id, title, description, side_a_label, side_b_label, amount,
	fee_percentage, currency, deadline, status, winning_side, creator_id,
	is_system_generated, created_at, updated_at`

// WagerRepository implements usecase.WagerRepository.
type WagerRepository struct {
	pool *pgxpool.Pool
}

// NewWagerRepository creates a new WagerRepository.
func NewWagerRepository(pool *pgxpool.Pool) *WagerRepository {
	return &WagerRepository{pool: pool}
}

// Create inserts a new wager.
func (r *WagerRepository) Create(ctx context.Context, wager *domain.Wager) error {
	query := `
		INSERT INTO wagers (` + wagerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.pool.Exec(ctx, query,
		wager.ID,
		wager.Title,
		wager.Description,
		wager.SideALabel,
		wager.SideBLabel,
		wager.Amount,
		wager.FeePercentage,
		wager.Currency,
		wager.Deadline,
		wager.Status,
		sideToText(wager.WinningSide),
		wager.CreatorID,
		wager.IsSystemGenerated,
		wager.CreatedAt,
		wager.UpdatedAt,
	)

	return err
}

// GetByID retrieves a wager by ID.
func (r *WagerRepository) GetByID(ctx context.Context, id string) (*domain.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE id = $1`

	wager, err := scanWager(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrWagerNotFound
	}

	return wager, err
}

// GetByIDForUpdate retrieves a wager by ID with a FOR UPDATE lock.
func (r *WagerRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Wager, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE id = $1 FOR UPDATE`

	wager, err := scanWager(pgxTx.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrWagerNotFound
	}

	return wager, err
}

// List lists wagers with an optional status filter, newest first.
func (r *WagerRepository) List(ctx context.Context, filter usecase.WagerFilter) ([]*domain.Wager, error) {
	query := `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE $1::text IS NULL OR status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	var status *string
	if filter.Status != nil {
		s := string(*filter.Status)
		status = &s
	}

	rows, err := r.pool.Query(ctx, query, status, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWagers(rows)
}

// ListByUser lists the wagers a user has entered, newest first.
func (r *WagerRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Wager, error) {
	query := `
		SELECT ` + wagerColumns + `
		FROM wagers w
		WHERE EXISTS (SELECT 1 FROM entries e WHERE e.wager_id = w.id AND e.user_id = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWagers(rows)
}

// ListExpiredOpen lists open wagers whose deadline has passed, oldest
// deadline first so the longest-waiting wagers are swept first.
func (r *WagerRepository) ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]*domain.Wager, error) {
	query := `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE status = 'open' AND deadline <= $1
		ORDER BY deadline ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWagers(rows)
}

// ListUnsettledResolved lists resolved wagers awaiting settlement.
func (r *WagerRepository) ListUnsettledResolved(ctx context.Context, limit int) ([]*domain.Wager, error) {
	query := `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE status = 'resolved'
		ORDER BY updated_at ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWagers(rows)
}

// UpdateStatusIf transitions status only when the current status is one of
// from. A nil winningSide keeps the stored value.
func (r *WagerRepository) UpdateStatusIf(ctx context.Context, tx usecase.Transaction, id string, from []domain.WagerStatus, to domain.WagerStatus, winningSide *domain.Side, at time.Time) (bool, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE wagers
		SET status = $3, winning_side = COALESCE($4, winning_side), updated_at = $5
		WHERE id = $1 AND status = ANY($2)
	`

	statuses := make([]string, 0, len(from))
	for _, s := range from {
		statuses = append(statuses, string(s))
	}

	tag, err := pgxTx.Exec(ctx, query, id, statuses, string(to), sideToText(winningSide), at)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func sideToText(s *domain.Side) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

func scanWager(row pgx.Row) (*domain.Wager, error) {
	var (
		wager       domain.Wager
		winningSide *string
	)
	err := row.Scan(
		&wager.ID,
		&wager.Title,
		&wager.Description,
		&wager.SideALabel,
		&wager.SideBLabel,
		&wager.Amount,
		&wager.FeePercentage,
		&wager.Currency,
		&wager.Deadline,
		&wager.Status,
		&winningSide,
		&wager.CreatorID,
		&wager.IsSystemGenerated,
		&wager.CreatedAt,
		&wager.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if winningSide != nil {
		side := domain.Side(*winningSide)
		wager.WinningSide = &side
	}

	return &wager, nil
}

func scanWagers(rows pgx.Rows) ([]*domain.Wager, error) {
	var wagers []*domain.Wager
	for rows.Next() {
		wager, err := scanWager(rows)
		if err != nil {
			return nil, err
		}
		wagers = append(wagers, wager)
	}

	return wagers, rows.Err()
}
