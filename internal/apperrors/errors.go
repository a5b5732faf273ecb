package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenIsUsed   = errors.New("refresh token is used")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")

	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountNumberTaken = errors.New("account number already exists")
	ErrInvariantViolation = errors.New("account invariant violated")

	// Transfer failures, one per precondition
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrSenderNotFound      = errors.New("sender account not found")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrSenderFrozen        = errors.New("sender account is frozen")
	ErrReceiverNotFound    = errors.New("receiver account not found")
	ErrReceiverFrozen      = errors.New("receiver account is frozen")
	ErrSelfTransfer        = errors.New("transfer to the same account")
	ErrBalanceInsufficient = errors.New("insufficient balance")
	ErrBalanceLimit        = errors.New("receiver balance limit exceeded")

	ErrForbidden = errors.New("forbidden")
)

// ValidationError is returned when input does not satisfy domain rules
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

var ErrAccountTypeInvalid = &ValidationError{Field: "type", Reason: "account type must be savings or current"}
