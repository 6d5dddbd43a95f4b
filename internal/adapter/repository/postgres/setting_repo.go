package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ovik/wagerd/internal/domain"
)

// SettingRepository implements usecase.SettingRepository over the
// polymorphic settings rows. Each row stores its value as JSON tagged
// with a kind; rows whose payload fails to parse are skipped so one bad
// row cannot block a configuration reload.
type SettingRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewSettingRepository creates a new SettingRepository.
func NewSettingRepository(pool *pgxpool.Pool, logger zerolog.Logger) *SettingRepository {
	return &SettingRepository{pool: pool, logger: logger}
}

// List loads every settings row and the snapshot version. The version is
// the highest row version, bumped on every write.
func (r *SettingRepository) List(ctx context.Context) ([]domain.Setting, int64, error) {
	query := `SELECT key, kind, value, version FROM settings ORDER BY key`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		settings []domain.Setting
		version  int64
	)
	for rows.Next() {
		var (
			key        string
			kind       string
			raw        json.RawMessage
			rowVersion int64
		)
		if err := rows.Scan(&key, &kind, &raw, &rowVersion); err != nil {
			return nil, 0, err
		}
		if rowVersion > version {
			version = rowVersion
		}

		value, err := domain.ParseSettingValue(domain.SettingKind(kind), raw)
		if err != nil {
			r.logger.Warn().Err(err).Str("key", key).Msg("skipping malformed settings row")
			continue
		}
		settings = append(settings, domain.Setting{Key: key, Value: value})
	}

	return settings, version, rows.Err()
}
