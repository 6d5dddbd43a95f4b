package dto

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ovik/wagerd/internal/domain"
	"github.com/ovik/wagerd/internal/usecase"
)

var validate = validator.New()

// CreateUserRequest represents a request to register a user.
type CreateUserRequest struct {
	Name  string `json:"name"  validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// Validate checks the request fields.
func (r *CreateUserRequest) Validate() error {
	return validate.Struct(r)
}

// ToUseCaseInput converts to use case input.
func (r *CreateUserRequest) ToUseCaseInput() usecase.CreateUserInput {
	return usecase.CreateUserInput{
		Name:  r.Name,
		Email: r.Email,
	}
}

// CreateWagerRequest represents a request to open a wager.
type CreateWagerRequest struct {
	Title       string    `json:"title"        validate:"required"`
	Description string    `json:"description"`
	SideALabel  string    `json:"side_a_label" validate:"required"`
	SideBLabel  string    `json:"side_b_label" validate:"required"`
	Amount      int64     `json:"amount"       validate:"gt=0"`
	Deadline    time.Time `json:"deadline"     validate:"required"`
	CreatorID   string    `json:"creator_id"   validate:"required"`
}

// Validate checks the request fields.
func (r *CreateWagerRequest) Validate() error {
	return validate.Struct(r)
}

// ToUseCaseInput converts to use case input.
func (r *CreateWagerRequest) ToUseCaseInput() usecase.CreateWagerInput {
	return usecase.CreateWagerInput{
		Title:       r.Title,
		Description: r.Description,
		SideALabel:  r.SideALabel,
		SideBLabel:  r.SideBLabel,
		Amount:      r.Amount,
		Deadline:    r.Deadline,
		CreatorID:   r.CreatorID,
	}
}

// JoinWagerRequest represents a request to stake on a wager side.
type JoinWagerRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Side   string `json:"side"    validate:"required,oneof=a b"`
}

// Validate checks the request fields.
func (r *JoinWagerRequest) Validate() error {
	return validate.Struct(r)
}

// ResolveWagerRequest represents a manual outcome declaration.
type ResolveWagerRequest struct {
	WinningSide string `json:"winning_side" validate:"required,oneof=a b"`
}

// Validate checks the request fields.
func (r *ResolveWagerRequest) Validate() error {
	return validate.Struct(r)
}

// BankAccountRequest is the payout destination for a withdrawal.
type BankAccountRequest struct {
	AccountNumber string `json:"account_number" validate:"required"`
	BankCode      string `json:"bank_code"      validate:"required"`
	AccountName   string `json:"account_name"`
}

// ToDomain converts to the domain bank account.
func (r *BankAccountRequest) ToDomain() domain.BankAccount {
	return domain.BankAccount{
		AccountNumber: r.AccountNumber,
		BankCode:      r.BankCode,
		AccountName:   r.AccountName,
	}
}

// CreateWithdrawalRequest represents a request to pay out balance.
type CreateWithdrawalRequest struct {
	UserID      string             `json:"user_id" validate:"required"`
	Amount      int64              `json:"amount"  validate:"gt=0"`
	BankAccount BankAccountRequest `json:"bank_account" validate:"required"`
}

// Validate checks the request fields.
func (r *CreateWithdrawalRequest) Validate() error {
	return validate.Struct(r)
}

// DepositWebhookRequest represents a confirmed external payment. The
// reference deduplicates redeliveries.
type DepositWebhookRequest struct {
	UserID    string `json:"user_id"   validate:"required"`
	Amount    int64  `json:"amount"    validate:"gt=0"`
	Reference string `json:"reference" validate:"required"`
}

// Validate checks the request fields.
func (r *DepositWebhookRequest) Validate() error {
	return validate.Struct(r)
}

// TransferWebhookEvent is the transfer processor's callback payload.
type TransferWebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Reason    string `json:"reason"`
	} `json:"data"`
}

// ParseSide converts a request side string to the domain type.
func ParseSide(s string) (domain.Side, error) {
	side := domain.Side(s)
	if !side.Valid() {
		return "", domain.ErrInvalidSide
	}
	return side, nil
}
