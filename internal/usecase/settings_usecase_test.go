package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ovik/wagerd/internal/domain"
	"github.com/ovik/wagerd/internal/usecase"
	"github.com/ovik/wagerd/internal/usecase/mocks"
)

func settingsDefaults() domain.Settings {
	return domain.Settings{
		Version:              0,
		FeePercentage:        decimal.NewFromFloat(0.05),
		Currency:             "USD",
		MinWithdrawal:        1000,
		MaxWithdrawal:        500000,
		DailyWithdrawalLimit: 1000000,
	}
}

func numberSetting(t *testing.T, key string, value string) domain.Setting {
	t.Helper()
	v, err := domain.ParseSettingValue(domain.SettingKindNumber, json.RawMessage(value))
	if err != nil {
		t.Fatalf("parse setting %s: %v", key, err)
	}
	return domain.Setting{Key: key, Value: v}
}

func TestSettings_SnapshotStartsWithDefaults(t *testing.T) {
	uc := usecase.NewSettingsUseCase(mocks.NewMockSettingRepository(), settingsDefaults(), zerolog.Nop())

	snap := uc.Snapshot()
	if snap.MinWithdrawal != 1000 || snap.Currency != "USD" {
		t.Errorf("expected defaults before the first reload, got %+v", snap)
	}
}

func TestSettings_ReloadOverridesDefaults(t *testing.T) {
	repo := mocks.NewMockSettingRepository()
	repo.ListFunc = func(ctx context.Context) ([]domain.Setting, int64, error) {
		return []domain.Setting{
			numberSetting(t, domain.SettingKeyMinWithdrawal, "2500"),
			numberSetting(t, domain.SettingKeyFeePercentage, "0.1"),
		}, 7, nil
	}
	uc := usecase.NewSettingsUseCase(repo, settingsDefaults(), zerolog.Nop())

	if err := uc.Reload(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := uc.Snapshot()
	if snap.Version != 7 {
		t.Errorf("expected version 7, got %d", snap.Version)
	}
	if snap.MinWithdrawal != 2500 {
		t.Errorf("expected overridden minimum 2500, got %d", snap.MinWithdrawal)
	}
	if !snap.FeePercentage.Equal(decimal.NewFromFloat(0.1)) {
		t.Errorf("expected overridden fee 0.1, got %s", snap.FeePercentage)
	}
	if snap.Currency != "USD" {
		t.Errorf("unset keys must keep their defaults, got %s", snap.Currency)
	}
}

func TestSettings_FailedReloadKeepsPreviousSnapshot(t *testing.T) {
	repo := mocks.NewMockSettingRepository()
	repo.ListFunc = func(ctx context.Context) ([]domain.Setting, int64, error) {
		return []domain.Setting{numberSetting(t, domain.SettingKeyMinWithdrawal, "2500")}, 7, nil
	}
	uc := usecase.NewSettingsUseCase(repo, settingsDefaults(), zerolog.Nop())
	if err := uc.Reload(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	repo.ListFunc = func(ctx context.Context) ([]domain.Setting, int64, error) {
		return nil, 0, errors.New("connection refused")
	}
	if err := uc.Reload(context.Background()); err == nil {
		t.Fatal("expected the repository error to surface")
	}

	snap := uc.Snapshot()
	if snap.Version != 7 || snap.MinWithdrawal != 2500 {
		t.Errorf("failed reload must keep the previous snapshot, got %+v", snap)
	}
}
