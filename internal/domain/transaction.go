package domain

import "time"

// TransactionType classifies a ledger movement.
type TransactionType string

const (
	TransactionTypeDeposit            TransactionType = "deposit"
	TransactionTypeWithdrawal         TransactionType = "withdrawal"
	TransactionTypeWithdrawalReversal TransactionType = "withdrawal_reversal"
	TransactionTypeWagerJoin          TransactionType = "wager_join"
	TransactionTypeWagerSettled       TransactionType = "wager_settled"
	TransactionTypeWagerRefund        TransactionType = "wager_refund"
)

// Transaction is one immutable, signed balance movement. The sum of a
// user's transactions must always equal their stored balance.
type Transaction struct {
	ID        string
	UserID    string
	Type      TransactionType
	Amount    int64
	Reference string
	CreatedAt time.Time
}
