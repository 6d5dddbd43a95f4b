package domain

import "time"

// Entry is one user's stake on one side of one wager. At most one entry
// exists per (wager, user) pair, enforced by a storage-level unique index.
// Entries are immutable once created.
type Entry struct {
	ID        string
	WagerID   string
	UserID    string
	Side      Side
	Amount    int64
	CreatedAt time.Time
}

// SideTotals holds the staked totals per side of a wager.
type SideTotals struct {
	SideA int64
	SideB int64
}

// Total returns the full pool across both sides.
func (t SideTotals) Total() int64 {
	return t.SideA + t.SideB
}

// ForSide returns the total staked on the given side.
func (t SideTotals) ForSide(s Side) int64 {
	if s == SideA {
		return t.SideA
	}
	return t.SideB
}

// TotalsForEntries sums entry amounts per side.
func TotalsForEntries(entries []*Entry) SideTotals {
	var t SideTotals
	for _, e := range entries {
		switch e.Side {
		case SideA:
			t.SideA += e.Amount
		case SideB:
			t.SideB += e.Amount
		}
	}
	return t
}
