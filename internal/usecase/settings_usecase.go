package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ovik/wagerd/internal/domain"
)

// SettingsUseCase loads polymorphic settings rows into an immutable typed
// snapshot and hands the current snapshot to operations. Each reload
// bumps the version, so any decision can be traced back to the exact
// configuration it ran under.
type SettingsUseCase struct {
	repo     SettingRepository
	defaults domain.Settings
	logger   zerolog.Logger

	mu      sync.RWMutex
	current domain.Settings
}

// NewSettingsUseCase creates a provider seeded with defaults; callers
// should Reload before serving traffic.
func NewSettingsUseCase(repo SettingRepository, defaults domain.Settings, logger zerolog.Logger) *SettingsUseCase {
	return &SettingsUseCase{
		repo:     repo,
		defaults: defaults,
		logger:   logger,
		current:  defaults,
	}
}

// Snapshot returns the current immutable settings snapshot.
func (uc *SettingsUseCase) Snapshot() domain.Settings {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.current
}

// Reload re-reads settings rows. On repository failure the previous
// snapshot stays in effect.
func (uc *SettingsUseCase) Reload(ctx context.Context) error {
	rows, version, err := uc.repo.List(ctx)
	if err != nil {
		uc.logger.Error().Err(err).Msg("settings reload failed, keeping previous snapshot")
		return err
	}

	resolved := domain.ResolveSettings(uc.defaults, version, rows)

	uc.mu.Lock()
	uc.current = resolved
	uc.mu.Unlock()

	uc.logger.Info().Int64("version", version).Msg("settings snapshot loaded")
	return nil
}

// Run refreshes the snapshot on an interval until ctx is cancelled.
func (uc *SettingsUseCase) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = uc.Reload(ctx)
		}
	}
}
