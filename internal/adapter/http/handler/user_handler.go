package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ovik/wagerd/internal/adapter/http/dto"
	"github.com/ovik/wagerd/internal/domain"
	"github.com/ovik/wagerd/internal/usecase"
)

// UserService defines the user behavior needed by UserHandler.
type UserService interface {
	CreateUser(ctx context.Context, input usecase.CreateUserInput) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// LedgerService defines the balance/transaction reads needed by UserHandler.
type LedgerService interface {
	GetBalance(ctx context.Context, userID string) (int64, error)
	ListTransactions(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error)
}

// UserWagerService lists the wagers a user has entered.
type UserWagerService interface {
	ListUserWagers(ctx context.Context, userID string, limit, offset int) ([]*domain.Wager, error)
}

// UserWithdrawalService lists a user's withdrawals.
type UserWithdrawalService interface {
	ListWithdrawals(ctx context.Context, userID string, limit, offset int) ([]*domain.Withdrawal, error)
}

// UserHandler handles user-related HTTP requests.
type UserHandler struct {
	userUC       UserService
	ledgerUC     LedgerService
	wagerUC      UserWagerService
	withdrawalUC UserWithdrawalService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userUC UserService, ledgerUC LedgerService, wagerUC UserWagerService, withdrawalUC UserWithdrawalService) *UserHandler {
	return &UserHandler{
		userUC:       userUC,
		ledgerUC:     ledgerUC,
		wagerUC:      wagerUC,
		withdrawalUC: withdrawalUC,
	}
}

// Create registers a new user.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	user, err := h.userUC.CreateUser(r.Context(), req.ToUseCaseInput())
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to create user", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.UserFromDomain(user))
}

// Get retrieves a user by ID.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing user ID", "")
		return
	}

	user, err := h.userUC.GetUser(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get user", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.UserFromDomain(user))
}

// Balance returns a user's current balance.
func (h *UserHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing user ID", "")
		return
	}

	balance, err := h.ledgerUC.GetBalance(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get balance", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{UserID: id, Balance: balance})
}

// Transactions lists a user's ledger movements.
func (h *UserHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing user ID", "")
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	txns, err := h.ledgerUC.ListTransactions(r.Context(), id, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list transactions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(txns))
}

// Wagers lists the wagers a user has entered.
func (h *UserHandler) Wagers(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing user ID", "")
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	wagers, err := h.wagerUC.ListUserWagers(r.Context(), id, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list wagers", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.WagersFromDomain(wagers))
}

// Withdrawals lists a user's withdrawal history.
func (h *UserHandler) Withdrawals(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing user ID", "")
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	withdrawals, err := h.withdrawalUC.ListWithdrawals(r.Context(), id, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list withdrawals", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.WithdrawalsFromDomain(withdrawals))
}
