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

// WagerService defines the wager read/write behavior needed by WagerHandler.
type WagerService interface {
	CreateWager(ctx context.Context, input usecase.CreateWagerInput) (*domain.Wager, error)
	GetWager(ctx context.Context, id string) (*usecase.WagerDetail, error)
	ListWagers(ctx context.Context, filter usecase.WagerFilter) ([]*domain.Wager, error)
}

// JoinService defines the staking behavior needed by WagerHandler.
type JoinService interface {
	Join(ctx context.Context, wagerID, userID string, side domain.Side) (*domain.Entry, error)
}

// SettlementService defines the lifecycle transitions needed by WagerHandler.
type SettlementService interface {
	Resolve(ctx context.Context, wagerID string, winningSide domain.Side) error
	Settle(ctx context.Context, wagerID string) error
	Refund(ctx context.Context, wagerID string) error
}

// WagerHandler handles wager-related HTTP requests.
type WagerHandler struct {
	wagerUC      WagerService
	joinUC       JoinService
	settlementUC SettlementService
}

// NewWagerHandler creates a new WagerHandler.
func NewWagerHandler(wagerUC WagerService, joinUC JoinService, settlementUC SettlementService) *WagerHandler {
	return &WagerHandler{
		wagerUC:      wagerUC,
		joinUC:       joinUC,
		settlementUC: settlementUC,
	}
}

// Create opens a new wager.
func (h *WagerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateWagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	wager, err := h.wagerUC.CreateWager(r.Context(), req.ToUseCaseInput())
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to create wager", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.WagerFromDomain(wager))
}

// Get retrieves a wager with its stake totals.
func (h *WagerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing wager ID", "")
		return
	}

	detail, err := h.wagerUC.GetWager(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get wager", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.WagerDetailFromUseCase(detail))
}

// List lists wagers, optionally filtered by status.
func (h *WagerHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := usecase.WagerFilter{
		Limit:  parseIntQuery(r, "limit", 20),
		Offset: parseIntQuery(r, "offset", 0),
	}

	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.WagerStatus(s)
		filter.Status = &status
	}

	wagers, err := h.wagerUC.ListWagers(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list wagers", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.WagersFromDomain(wagers))
}

// Join stakes the wager's fixed amount on one side.
func (h *WagerHandler) Join(w http.ResponseWriter, r *http.Request) {
	wagerID := chi.URLParam(r, "id")
	if wagerID == "" {
		writeError(w, http.StatusBadRequest, "missing wager ID", "")
		return
	}

	var req dto.JoinWagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	side, err := dto.ParseSide(req.Side)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid side", err.Error())
		return
	}

	entry, err := h.joinUC.Join(r.Context(), wagerID, req.UserID, side)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to join wager", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// Resolve declares the winning side of an expired wager.
func (h *WagerHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	wagerID := chi.URLParam(r, "id")
	if wagerID == "" {
		writeError(w, http.StatusBadRequest, "missing wager ID", "")
		return
	}

	var req dto.ResolveWagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	side, err := dto.ParseSide(req.WinningSide)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid side", err.Error())
		return
	}

	if err := h.settlementUC.Resolve(r.Context(), wagerID, side); err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to resolve wager", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

// Settle pays out a resolved wager.
func (h *WagerHandler) Settle(w http.ResponseWriter, r *http.Request) {
	wagerID := chi.URLParam(r, "id")
	if wagerID == "" {
		writeError(w, http.StatusBadRequest, "missing wager ID", "")
		return
	}

	if err := h.settlementUC.Settle(r.Context(), wagerID); err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to settle wager", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "settled"})
}

// Refund returns every stake on a wager.
func (h *WagerHandler) Refund(w http.ResponseWriter, r *http.Request) {
	wagerID := chi.URLParam(r, "id")
	if wagerID == "" {
		writeError(w, http.StatusBadRequest, "missing wager ID", "")
		return
	}

	if err := h.settlementUC.Refund(r.Context(), wagerID); err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to refund wager", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "refunded"})
}
