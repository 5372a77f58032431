package handler

import (
	"errors"
	"net/http"

	"github.com/meridianbank/core/internal/domain"
)

// AppError is an error with an HTTP status and a stable machine code. All
// handler failures pass through one of the constructors so the wire shape
// stays uniform.
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *AppError) Error() string { return e.Message }

func NewAppError(status int, code, message string) *AppError {
	return &AppError{Status: status, Code: code, Message: message}
}

func (e *AppError) WithDetails(details any) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

var (
	ErrMissingToken = NewAppError(http.StatusUnauthorized, "MISSING_TOKEN", "authorization token is required")
	ErrInvalidToken = NewAppError(http.StatusUnauthorized, "INVALID_TOKEN", "authorization token is invalid or expired")
	ErrForbidden    = NewAppError(http.StatusForbidden, "FORBIDDEN", "you do not have access to this resource")
	ErrBadRequest   = NewAppError(http.StatusBadRequest, "INVALID_REQUEST", "request body is malformed")
	ErrNotFound     = NewAppError(http.StatusNotFound, "NOT_FOUND", "resource not found")
	ErrInternal     = NewAppError(http.StatusInternalServerError, "INTERNAL_ERROR", "something went wrong")
)

// fromDomain maps service-layer sentinel errors onto wire errors. Unmapped
// errors collapse to INTERNAL_ERROR; the real cause stays in the logs only.
func fromDomain(err error) *AppError {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, domain.ErrInvalidAccount):
		return NewAppError(http.StatusUnprocessableEntity, "INVALID_ACCOUNT", "source account is missing, inactive or not yours")
	case errors.Is(err, domain.ErrCurrencyNotAllowed):
		return NewAppError(http.StatusUnprocessableEntity, "CURRENCY_NOT_ALLOWED", "this currency is not enabled for transfers")
	case errors.Is(err, domain.ErrInvalidAmount):
		return NewAppError(http.StatusUnprocessableEntity, "INVALID_AMOUNT", "amount must be a positive value with at most two decimal places")
	case errors.Is(err, domain.ErrInsufficientFunds):
		return NewAppError(http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "account balance is insufficient for this transfer")
	case errors.Is(err, domain.ErrInvalidRecipientDetails):
		return NewAppError(http.StatusUnprocessableEntity, "INVALID_RECIPIENT_DETAILS", "recipient details are incomplete or malformed")
	case errors.Is(err, domain.ErrRecipientAccountNotFound):
		return NewAppError(http.StatusUnprocessableEntity, "RECIPIENT_ACCOUNT_NOT_FOUND", "recipient account does not exist or is inactive")
	case errors.Is(err, domain.ErrCurrencyMismatch):
		return NewAppError(http.StatusConflict, "CURRENCY_MISMATCH", "account currency does not match the transfer currency")
	case errors.Is(err, domain.ErrConcurrentModification):
		return NewAppError(http.StatusConflict, "CONCURRENT_MODIFICATION", "the account changed underneath this request, try again")
	case errors.Is(err, domain.ErrAlreadyProcessed):
		return NewAppError(http.StatusConflict, "ALREADY_PROCESSED", "this transfer has already been settled")
	case errors.Is(err, domain.ErrInvalidDisposition):
		return NewAppError(http.StatusUnprocessableEntity, "INVALID_DISPOSITION", "this disposition does not apply to the transfer")
	case errors.Is(err, domain.ErrInvalidRequest):
		return ErrBadRequest
	default:
		return ErrInternal
	}
}
