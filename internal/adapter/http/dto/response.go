package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ovik/wagerd/internal/domain"
	"github.com/ovik/wagerd/internal/usecase"
)

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Balance   int64     `json:"balance"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserFromDomain converts a domain user to a response.
func UserFromDomain(u *domain.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Balance:   u.Balance,
		Currency:  u.Currency,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// BalanceResponse represents a balance lookup.
type BalanceResponse struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

// WagerResponse represents a wager in API responses.
type WagerResponse struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	Description       string          `json:"description,omitempty"`
	SideALabel        string          `json:"side_a_label"`
	SideBLabel        string          `json:"side_b_label"`
	Amount            int64           `json:"amount"`
	FeePercentage     decimal.Decimal `json:"fee_percentage"`
	Currency          string          `json:"currency"`
	Deadline          time.Time       `json:"deadline"`
	Status            string          `json:"status"`
	WinningSide       *string         `json:"winning_side,omitempty"`
	CreatorID         string          `json:"creator_id"`
	IsSystemGenerated bool            `json:"is_system_generated"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// WagerFromDomain converts a domain wager to a response.
func WagerFromDomain(w *domain.Wager) *WagerResponse {
	var winning *string
	if w.WinningSide != nil {
		s := string(*w.WinningSide)
		winning = &s
	}
	return &WagerResponse{
		ID:                w.ID,
		Title:             w.Title,
		Description:       w.Description,
		SideALabel:        w.SideALabel,
		SideBLabel:        w.SideBLabel,
		Amount:            w.Amount,
		FeePercentage:     w.FeePercentage,
		Currency:          w.Currency,
		Deadline:          w.Deadline,
		Status:            string(w.Status),
		WinningSide:       winning,
		CreatorID:         w.CreatorID,
		IsSystemGenerated: w.IsSystemGenerated,
		CreatedAt:         w.CreatedAt,
		UpdatedAt:         w.UpdatedAt,
	}
}

// WagersFromDomain converts domain wagers to responses.
func WagersFromDomain(wagers []*domain.Wager) []*WagerResponse {
	result := make([]*WagerResponse, len(wagers))
	for i, w := range wagers {
		result[i] = WagerFromDomain(w)
	}
	return result
}

// WagerDetailResponse pairs a wager with its stake totals.
type WagerDetailResponse struct {
	Wager      *WagerResponse `json:"wager"`
	SideATotal int64          `json:"side_a_total"`
	SideBTotal int64          `json:"side_b_total"`
	Pool       int64          `json:"pool"`
	Entries    int            `json:"entries"`
}

// WagerDetailFromUseCase converts a use case detail to a response.
func WagerDetailFromUseCase(d *usecase.WagerDetail) *WagerDetailResponse {
	return &WagerDetailResponse{
		Wager:      WagerFromDomain(d.Wager),
		SideATotal: d.Totals.SideA,
		SideBTotal: d.Totals.SideB,
		Pool:       d.Totals.Total(),
		Entries:    d.Entries,
	}
}

// EntryResponse represents a wager entry in API responses.
type EntryResponse struct {
	ID        string    `json:"id"`
	WagerID   string    `json:"wager_id"`
	UserID    string    `json:"user_id"`
	Side      string    `json:"side"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// EntryFromDomain converts a domain entry to a response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	return &EntryResponse{
		ID:        e.ID,
		WagerID:   e.WagerID,
		UserID:    e.UserID,
		Side:      string(e.Side),
		Amount:    e.Amount,
		CreatedAt: e.CreatedAt,
	}
}

// TransactionResponse represents a ledger movement in API responses.
type TransactionResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Amount    int64     `json:"amount"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:        t.ID,
		UserID:    t.UserID,
		Type:      string(t.Type),
		Amount:    t.Amount,
		Reference: t.Reference,
		CreatedAt: t.CreatedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txns []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txns))
	for i, t := range txns {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// WithdrawalResponse represents a withdrawal in API responses.
type WithdrawalResponse struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Amount        int64     `json:"amount"`
	Status        string    `json:"status"`
	Reference     string    `json:"reference"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// WithdrawalFromDomain converts a domain withdrawal to a response.
func WithdrawalFromDomain(w *domain.Withdrawal) *WithdrawalResponse {
	return &WithdrawalResponse{
		ID:            w.ID,
		UserID:        w.UserID,
		Amount:        w.Amount,
		Status:        string(w.Status),
		Reference:     w.Reference,
		FailureReason: w.FailureReason,
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
	}
}

// WithdrawalsFromDomain converts domain withdrawals to responses.
func WithdrawalsFromDomain(withdrawals []*domain.Withdrawal) []*WithdrawalResponse {
	result := make([]*WithdrawalResponse, len(withdrawals))
	for i, w := range withdrawals {
		result[i] = WithdrawalFromDomain(w)
	}
	return result
}

// SweepReportResponse summarizes a sweep run.
type SweepReportResponse struct {
	Examined   int `json:"examined"`
	Resolved   int `json:"resolved"`
	Settled    int `json:"settled"`
	Refunded   int `json:"refunded"`
	LeftManual int `json:"left_manual"`
	Errors     int `json:"errors"`
}

// SweepReportFromUseCase converts a sweep report to a response.
func SweepReportFromUseCase(r usecase.SweepReport) *SweepReportResponse {
	return &SweepReportResponse{
		Examined:   r.Examined,
		Resolved:   r.Resolved,
		Settled:    r.Settled,
		Refunded:   r.Refunded,
		LeftManual: r.LeftManual,
		Errors:     r.Errors,
	}
}

// ConsistencyResponse reports the ledger consistency check outcome.
type ConsistencyResponse struct {
	MismatchedUsers int64 `json:"mismatched_users"`
	Consistent      bool  `json:"consistent"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
