package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/ovik/wagerd/internal/domain"
	"github.com/ovik/wagerd/internal/infrastructure/metrics"
)

// SweeperUseCase drives expired wagers toward resolution, settlement or
// refund. It holds no locks of its own: every effect is expressed through
// the settlement engine's at-most-once transitions, so overlapping sweeps
// and manual admin actions are no-ops on wagers already past the relevant
// state.
type SweeperUseCase struct {
	wagerRepo  WagerRepository
	entryRepo  EntryRepository
	settlement *SettlementUseCase
	resolver   OutcomeResolver
	settings   SettingsProvider
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewSweeperUseCase creates a new SweeperUseCase.
func NewSweeperUseCase(
	wagerRepo WagerRepository,
	entryRepo EntryRepository,
	settlement *SettlementUseCase,
	resolver OutcomeResolver,
	settings SettingsProvider,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *SweeperUseCase {
	return &SweeperUseCase{
		wagerRepo:  wagerRepo,
		entryRepo:  entryRepo,
		settlement: settlement,
		resolver:   resolver,
		settings:   settings,
		metrics:    metrics,
		logger:     logger,
	}
}

// SweepReport summarizes one sweep invocation.
type SweepReport struct {
	Examined   int
	Resolved   int
	Settled    int
	Refunded   int
	LeftManual int
	Errors     int
}

// Sweep processes expired open wagers and unsettled resolved wagers.
// Per-wager failures are logged and counted, never fatal to the sweep.
func (uc *SweeperUseCase) Sweep(ctx context.Context) (SweepReport, error) {
	start := time.Now()
	snapshot := uc.settings.Snapshot()

	var report SweepReport

	expired, err := uc.wagerRepo.ListExpiredOpen(ctx, start.UTC(), SweepBatchSize)
	if err != nil {
		return report, err
	}

	for _, wager := range expired {
		report.Examined++
		uc.sweepExpired(ctx, wager, snapshot, &report)
	}

	resolved, err := uc.wagerRepo.ListUnsettledResolved(ctx, SweepBatchSize)
	if err != nil {
		return report, err
	}

	for _, wager := range resolved {
		report.Examined++
		if err := uc.settlement.Settle(ctx, wager.ID); err != nil {
			// Lost the race to another settler; nothing to do.
			if errors.Is(err, domain.ErrWagerNotSettleable) {
				continue
			}
			report.Errors++
			uc.logger.Error().Err(err).Str("wager_id", wager.ID).Msg("sweep settlement failed")
			continue
		}
		report.Settled++
	}

	if uc.metrics != nil {
		uc.metrics.SweepRuns.Inc()
		uc.metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}

	uc.logger.Info().
		Int("examined", report.Examined).
		Int("resolved", report.Resolved).
		Int("settled", report.Settled).
		Int("refunded", report.Refunded).
		Int("left_for_manual", report.LeftManual).
		Int("errors", report.Errors).
		Msg("sweep completed")

	return report, nil
}

func (uc *SweeperUseCase) sweepExpired(ctx context.Context, wager *domain.Wager, snapshot domain.Settings, report *SweepReport) {
	entries, err := uc.entryRepo.ListByWager(ctx, wager.ID)
	if err != nil {
		report.Errors++
		uc.logger.Error().Err(err).Str("wager_id", wager.ID).Msg("sweep entry listing failed")
		return
	}

	// A one-sided or empty wager never formed a market: refund it.
	totals := domain.TotalsForEntries(entries)
	if totals.SideA == 0 || totals.SideB == 0 {
		if err := uc.settlement.Refund(ctx, wager.ID); err != nil {
			if errors.Is(err, domain.ErrWagerNotRefundable) {
				return
			}
			report.Errors++
			uc.logger.Error().Err(err).Str("wager_id", wager.ID).Msg("sweep refund failed")
			return
		}
		report.Refunded++
		return
	}

	if !snapshot.AutoResolveEnabled || uc.resolver == nil {
		report.LeftManual++
		return
	}

	proposal, err := uc.resolver.ProposeOutcome(ctx, wager)
	if err != nil {
		report.Errors++
		uc.logger.Warn().Err(err).Str("wager_id", wager.ID).Msg("outcome resolver failed")
		return
	}
	if !proposal.Decisive(snapshot.ResolveConfidenceMin) {
		report.LeftManual++
		uc.logger.Info().
			Str("wager_id", wager.ID).
			Float64("confidence", proposal.Confidence).
			Msg("no authoritative outcome, leaving for manual resolution")
		return
	}

	if err := uc.settlement.Resolve(ctx, wager.ID, *proposal.WinningSide); err != nil {
		if errors.Is(err, domain.ErrAlreadyResolved) {
			return
		}
		report.Errors++
		uc.logger.Error().Err(err).Str("wager_id", wager.ID).Msg("sweep resolution failed")
		return
	}
	report.Resolved++

	uc.logger.Info().
		Str("wager_id", wager.ID).
		Str("winning_side", string(*proposal.WinningSide)).
		Float64("confidence", proposal.Confidence).
		Str("reasoning", proposal.Reasoning).
		Msg("wager auto-resolved")

	if err := uc.settlement.Settle(ctx, wager.ID); err != nil {
		if errors.Is(err, domain.ErrWagerNotSettleable) {
			return
		}
		report.Errors++
		uc.logger.Error().Err(err).Str("wager_id", wager.ID).Msg("sweep settlement failed")
		return
	}
	report.Settled++
}

// Run invokes Sweep on a fixed interval until ctx is cancelled.
func (uc *SweeperUseCase) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := uc.Sweep(ctx); err != nil {
				uc.logger.Error().Err(err).Msg("sweep failed")
			}
		}
	}
}
