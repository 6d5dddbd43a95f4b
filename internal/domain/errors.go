package domain

import "errors"

var (
	// Not-found errors
	ErrWagerNotFound      = errors.New("wager not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrEntryNotFound      = errors.New("entry not found")
	ErrWithdrawalNotFound = errors.New("withdrawal not found")

	// State-conflict errors: the requested transition is invalid given the
	// current state. No side effects; safe to retry after re-reading state.
	ErrWagerNotJoinable   = errors.New("wager is not joinable")
	ErrAlreadyJoined      = errors.New("user already joined this wager")
	ErrAlreadyResolved    = errors.New("wager already resolved with a different side")
	ErrWagerNotSettleable = errors.New("wager is not settleable")
	ErrWagerNotRefundable = errors.New("wager is not refundable")
	ErrWithdrawalNotOpen  = errors.New("withdrawal is not in a processable state")

	// Insufficient-resource errors
	ErrInsufficientBalance     = errors.New("insufficient balance")
	ErrWithdrawalLimitExceeded = errors.New("withdrawal limit exceeded")

	// Validation errors
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidSide        = errors.New("side must be a or b")
	ErrInvalidFee         = errors.New("fee percentage must be in [0, 1)")
	ErrInvalidDeadline    = errors.New("deadline must be in the future")
	ErrMissingTitle       = errors.New("title is required")
	ErrMissingSideLabel   = errors.New("both side labels are required")
	ErrMissingBankAccount = errors.New("bank account details are required")
	ErrMissingUserDetails = errors.New("name and email are required")

	// External-dependency errors
	ErrTransferRejected = errors.New("transfer processor rejected the request")
)
