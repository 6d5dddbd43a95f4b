package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side identifies one of the two sides of a wager.
type Side string

const (
	SideA Side = "a"
	SideB Side = "b"
)

// Valid reports whether s is one of the two known sides.
func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

// WagerStatus is the lifecycle state of a wager.
type WagerStatus string

const (
	WagerStatusOpen     WagerStatus = "open"
	WagerStatusResolved WagerStatus = "resolved"
	WagerStatusSettled  WagerStatus = "settled"
	WagerStatusRefunded WagerStatus = "refunded"
)

// Terminal reports whether no further transition is possible from s.
func (s WagerStatus) Terminal() bool {
	return s == WagerStatusSettled || s == WagerStatusRefunded
}

// Wager is a two-sided proposition users stake a fixed amount on.
// Amounts are integer cents in a single currency.
type Wager struct {
	ID                string
	Title             string
	Description       string
	SideALabel        string
	SideBLabel        string
	Amount            int64
	FeePercentage     decimal.Decimal
	Currency          string
	Deadline          time.Time
	Status            WagerStatus
	WinningSide       *Side
	CreatorID         string
	IsSystemGenerated bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Joinable reports whether a new entry may be created at time now.
func (w *Wager) Joinable(now time.Time) bool {
	return w.Status == WagerStatusOpen && now.Before(w.Deadline)
}

// Expired reports whether the deadline has elapsed.
func (w *Wager) Expired(now time.Time) bool {
	return !now.Before(w.Deadline)
}

// Validate checks a wager at creation time.
func (w *Wager) Validate(now time.Time) error {
	if w.Title == "" {
		return ErrMissingTitle
	}
	if w.SideALabel == "" || w.SideBLabel == "" {
		return ErrMissingSideLabel
	}
	if w.Amount <= 0 {
		return ErrInvalidAmount
	}
	if w.FeePercentage.IsNegative() || w.FeePercentage.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return ErrInvalidFee
	}
	if !w.Deadline.After(now) {
		return ErrInvalidDeadline
	}
	return nil
}
