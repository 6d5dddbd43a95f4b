package domain

import "time"

// User holds a spendable balance in integer cents. The balance column is
// the authoritative scalar; it is only ever changed through atomic
// adjustments paired with a Transaction record.
type User struct {
	ID        string
	Name      string
	Email     string
	Balance   int64
	Currency  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanAfford is an advisory pre-check only. The atomic guarantee lives in
// the storage layer's conditional balance update.
func (u *User) CanAfford(amount int64) bool {
	return u.Balance >= amount
}
