package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ovik/wagerd/internal/adapter/http/dto"
	"github.com/ovik/wagerd/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrWagerNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrEntryNotFound),
		errors.Is(err, domain.ErrWithdrawalNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrWagerNotJoinable),
		errors.Is(err, domain.ErrAlreadyJoined),
		errors.Is(err, domain.ErrAlreadyResolved),
		errors.Is(err, domain.ErrWagerNotSettleable),
		errors.Is(err, domain.ErrWagerNotRefundable),
		errors.Is(err, domain.ErrWithdrawalNotOpen):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrWithdrawalLimitExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidSide),
		errors.Is(err, domain.ErrInvalidFee),
		errors.Is(err, domain.ErrInvalidDeadline),
		errors.Is(err, domain.ErrMissingTitle),
		errors.Is(err, domain.ErrMissingSideLabel),
		errors.Is(err, domain.ErrMissingBankAccount),
		errors.Is(err, domain.ErrMissingUserDetails):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrTransferRejected):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
