package handler

import (
	"context"
	"net/http"

	"github.com/ovik/wagerd/internal/adapter/http/dto"
	"github.com/ovik/wagerd/internal/usecase"
)

// SweepService runs one sweep pass on demand.
type SweepService interface {
	Sweep(ctx context.Context) (usecase.SweepReport, error)
}

// ConsistencyService compares stored balances against the transaction log.
type ConsistencyService interface {
	CheckConsistency(ctx context.Context) (int64, error)
}

// AdminHandler handles operational endpoints.
type AdminHandler struct {
	sweeperUC SweepService
	ledgerUC  ConsistencyService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(sweeperUC SweepService, ledgerUC ConsistencyService) *AdminHandler {
	return &AdminHandler{
		sweeperUC: sweeperUC,
		ledgerUC:  ledgerUC,
	}
}

// Sweep triggers one sweep of expired and unsettled wagers.
func (h *AdminHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	report, err := h.sweeperUC.Sweep(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sweep failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SweepReportFromUseCase(report))
}

// Consistency reports how many users have a balance that disagrees with
// their transaction history.
func (h *AdminHandler) Consistency(w http.ResponseWriter, r *http.Request) {
	mismatched, err := h.ledgerUC.CheckConsistency(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "consistency check failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyResponse{
		MismatchedUsers: mismatched,
		Consistent:      mismatched == 0,
	})
}
