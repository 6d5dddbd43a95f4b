package domain

import "time"

// WithdrawalStatus is the lifecycle state of a withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalStatusPending    WithdrawalStatus = "pending"
	WithdrawalStatusProcessing WithdrawalStatus = "processing"
	WithdrawalStatusCompleted  WithdrawalStatus = "completed"
	WithdrawalStatusFailed     WithdrawalStatus = "failed"
)

// BankAccount is the payout destination passed to the transfer processor.
type BankAccount struct {
	AccountNumber string
	BankCode      string
	AccountName   string
}

// Withdrawal reserves funds up front: the balance is debited before any
// external call, and a failed transfer always triggers an equal
// compensating credit.
type Withdrawal struct {
	ID            string
	UserID        string
	Amount        int64
	Status        WithdrawalStatus
	BankAccount   BankAccount
	Reference     string
	RecipientCode string
	TransferCode  string
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks the request fields before any money moves.
func (w *Withdrawal) Validate() error {
	if w.Amount <= 0 {
		return ErrInvalidAmount
	}
	if w.BankAccount.AccountNumber == "" || w.BankAccount.BankCode == "" {
		return ErrMissingBankAccount
	}
	return nil
}
