package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ovik/wagerd/internal/adapter/http/dto"
	"github.com/ovik/wagerd/internal/domain"
)

// TransferCallbackService applies asynchronous transfer outcomes.
type TransferCallbackService interface {
	HandleTransferCallback(ctx context.Context, reference string, success bool, reason string) error
}

// DepositService credits confirmed external payments.
type DepositService interface {
	RecordDeposit(ctx context.Context, userID string, amount int64, reference string) (int64, error)
}

// SignatureVerifier checks a webhook payload against its signature header.
type SignatureVerifier interface {
	VerifySignature(body []byte, signature string) bool
}

// WebhookHandler handles inbound webhooks from external processors.
type WebhookHandler struct {
	withdrawalUC TransferCallbackService
	ledgerUC     DepositService
	verifier     SignatureVerifier
	logger       zerolog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(withdrawalUC TransferCallbackService, ledgerUC DepositService, verifier SignatureVerifier, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		withdrawalUC: withdrawalUC,
		ledgerUC:     ledgerUC,
		verifier:     verifier,
		logger:       logger,
	}
}

// Transfer handles transfer status callbacks. The processor redelivers on
// non-2xx, so events we cannot act on are acknowledged, not rejected.
func (h *WebhookHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body", err.Error())
		return
	}

	if h.verifier != nil && !h.verifier.VerifySignature(body, r.Header.Get("x-paystack-signature")) {
		writeError(w, http.StatusUnauthorized, "invalid signature", "")
		return
	}

	var event dto.TransferWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}

	var success bool
	switch event.Event {
	case "transfer.success":
		success = true
	case "transfer.failed", "transfer.reversed":
		success = false
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	err = h.withdrawalUC.HandleTransferCallback(r.Context(), event.Data.Reference, success, event.Data.Reason)
	if err != nil {
		if errors.Is(err, domain.ErrWithdrawalNotFound) {
			h.logger.Warn().Str("reference", event.Data.Reference).Msg("transfer callback for unknown reference")
			writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to process callback", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "processed"})
}

// Deposit handles payment confirmation callbacks. Redeliveries with the
// same reference credit at most once.
func (h *WebhookHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	balance, err := h.ledgerUC.RecordDeposit(r.Context(), req.UserID, req.Amount, req.Reference)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to record deposit", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{UserID: req.UserID, Balance: balance})
}
