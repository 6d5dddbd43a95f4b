package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ovik/wagerd/internal/domain"
	"github.com/ovik/wagerd/internal/infrastructure/metrics"
)

// WagerUseCase handles wager creation and the read-heavy lookup paths.
// Reads go through the cache; the short TTLs plus the invalidation done
// by every mutating operation keep stale status out of financial
// decisions.
type WagerUseCase struct {
	wagerRepo WagerRepository
	entryRepo EntryRepository
	cache     Cache
	settings  SettingsProvider
	idGen     IDGenerator
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewWagerUseCase creates a new WagerUseCase.
func NewWagerUseCase(
	wagerRepo WagerRepository,
	entryRepo EntryRepository,
	cache Cache,
	settings SettingsProvider,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *WagerUseCase {
	return &WagerUseCase{
		wagerRepo: wagerRepo,
		entryRepo: entryRepo,
		cache:     cache,
		settings:  settings,
		idGen:     idGen,
		metrics:   metrics,
		logger:    logger,
	}
}

// CreateWagerInput carries a create request.
type CreateWagerInput struct {
	Title             string
	Description       string
	SideALabel        string
	SideBLabel        string
	Amount            int64
	Deadline          time.Time
	CreatorID         string
	IsSystemGenerated bool
}

// CreateWager creates an open wager. The fee percentage and currency are
// frozen from the settings snapshot active now, so later settlement math
// is reproducible regardless of settings changes in between.
func (uc *WagerUseCase) CreateWager(ctx context.Context, input CreateWagerInput) (*domain.Wager, error) {
	snapshot := uc.settings.Snapshot()
	now := time.Now().UTC()

	wager := &domain.Wager{
		ID:                uc.idGen.Generate(),
		Title:             input.Title,
		Description:       input.Description,
		SideALabel:        input.SideALabel,
		SideBLabel:        input.SideBLabel,
		Amount:            input.Amount,
		FeePercentage:     snapshot.FeePercentage,
		Currency:          snapshot.Currency,
		Deadline:          input.Deadline.UTC(),
		Status:            domain.WagerStatusOpen,
		CreatorID:         input.CreatorID,
		IsSystemGenerated: input.IsSystemGenerated,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := wager.Validate(now); err != nil {
		return nil, err
	}

	if err := uc.wagerRepo.Create(ctx, wager); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WagersCreated.Inc()
	}

	if uc.cache != nil {
		if err := uc.cache.DeleteByPrefix(ctx, WagerListPrefix); err != nil {
			uc.logger.Warn().Err(err).Msg("wager list cache invalidation failed")
		}
	}

	return wager, nil
}

// WagerDetail pairs a wager with its per-side stake totals.
type WagerDetail struct {
	Wager   *domain.Wager     `json:"wager"`
	Totals  domain.SideTotals `json:"totals"`
	Entries int               `json:"entries"`
}

// GetWager returns a wager with aggregate stake counts, cache-first.
func (uc *WagerUseCase) GetWager(ctx context.Context, id string) (*WagerDetail, error) {
	key := WagerDetailKey + id

	data, err := uc.cached(ctx, key, WagerDetailTTL, func(ctx context.Context) ([]byte, error) {
		wager, err := uc.wagerRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		entries, err := uc.entryRepo.ListByWager(ctx, id)
		if err != nil {
			return nil, err
		}
		return json.Marshal(WagerDetail{
			Wager:   wager,
			Totals:  domain.TotalsForEntries(entries),
			Entries: len(entries),
		})
	})
	if err != nil {
		return nil, err
	}

	var detail WagerDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListWagers lists wagers, cache-first, keyed by the full filter.
func (uc *WagerUseCase) ListWagers(ctx context.Context, filter WagerFilter) ([]*domain.Wager, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}

	status := "all"
	if filter.Status != nil {
		status = string(*filter.Status)
	}
	key := fmt.Sprintf("%s%s:%d:%d", WagerListPrefix, status, filter.Limit, filter.Offset)

	data, err := uc.cached(ctx, key, WagerListTTL, func(ctx context.Context) ([]byte, error) {
		wagers, err := uc.wagerRepo.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		return json.Marshal(wagers)
	})
	if err != nil {
		return nil, err
	}

	var wagers []*domain.Wager
	if err := json.Unmarshal(data, &wagers); err != nil {
		return nil, err
	}
	return wagers, nil
}

// ListUserWagers lists the wagers a user has entered, cache-first.
func (uc *WagerUseCase) ListUserWagers(ctx context.Context, userID string, limit, offset int) ([]*domain.Wager, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	key := fmt.Sprintf("%s%s:%d:%d", UserWagersPrefix, userID, limit, offset)

	data, err := uc.cached(ctx, key, UserWagersTTL, func(ctx context.Context) ([]byte, error) {
		wagers, err := uc.wagerRepo.ListByUser(ctx, userID, limit, offset)
		if err != nil {
			return nil, err
		}
		return json.Marshal(wagers)
	})
	if err != nil {
		return nil, err
	}

	var wagers []*domain.Wager
	if err := json.Unmarshal(data, &wagers); err != nil {
		return nil, err
	}
	return wagers, nil
}

func (uc *WagerUseCase) cached(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	if uc.cache == nil {
		return loader(ctx)
	}
	return uc.cache.GetOrFetch(ctx, key, ttl, loader)
}
