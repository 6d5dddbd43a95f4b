package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrEmptyWinningSide marks a resolved wager whose winning side has no
// entries. Such a wager cannot be settled and must be refunded instead,
// with no fee taken.
var ErrEmptyWinningSide = errors.New("winning side has no entries")

// Payout is one winning entrant's computed share of the distributable pool.
type Payout struct {
	EntryID string
	UserID  string
	Amount  int64
}

// SettlementPlan is the full money movement for settling one wager.
// Invariant: Fee + sum(Payouts) == Pool, exactly.
type SettlementPlan struct {
	Pool    int64
	Fee     int64
	Payouts []Payout
}

// PlanSettlement computes pari-mutuel payouts for a resolved wager.
//
// pool = sum of all entry amounts; fee = floor(pool * feePct);
// each winner gets floor((pool - fee) * stake / winningTotal).
// Fractional cents lost to the per-entrant floor accrue to the platform
// fee, so payouts plus fee always reproduce the pool exactly.
func PlanSettlement(entries []*Entry, winning Side, feePct decimal.Decimal) (*SettlementPlan, error) {
	if !winning.Valid() {
		return nil, ErrInvalidSide
	}

	totals := TotalsForEntries(entries)
	pool := totals.Total()
	winningTotal := totals.ForSide(winning)
	if winningTotal == 0 {
		return nil, ErrEmptyWinningSide
	}

	fee := decimal.NewFromInt(pool).Mul(feePct).Floor().IntPart()
	distributable := pool - fee

	plan := &SettlementPlan{Pool: pool, Fee: fee}

	distDec := decimal.NewFromInt(distributable)
	winDec := decimal.NewFromInt(winningTotal)

	var paid int64
	for _, e := range entries {
		if e.Side != winning {
			continue
		}
		share := distDec.Mul(decimal.NewFromInt(e.Amount)).Div(winDec).Floor().IntPart()
		paid += share
		plan.Payouts = append(plan.Payouts, Payout{
			EntryID: e.ID,
			UserID:  e.UserID,
			Amount:  share,
		})
	}

	// Rounding remainder goes to the fee.
	plan.Fee += distributable - paid

	return plan, nil
}
