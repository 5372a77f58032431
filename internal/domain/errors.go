package domain

import "errors"

var (
	ErrNotFound                 = errors.New("not found")
	ErrInvalidAccount           = errors.New("invalid source account")
	ErrCurrencyNotAllowed       = errors.New("currency not allowed for transfers")
	ErrInvalidAmount            = errors.New("invalid transfer amount")
	ErrInsufficientFunds        = errors.New("insufficient funds")
	ErrInvalidRecipientDetails  = errors.New("invalid recipient details")
	ErrRecipientAccountNotFound = errors.New("recipient account not found")
	ErrConcurrentModification   = errors.New("concurrent balance modification")
	ErrAlreadyProcessed         = errors.New("transaction already processed")
	ErrCurrencyMismatch         = errors.New("currency mismatch")
	ErrInvalidDisposition       = errors.New("invalid disposition for transaction")
	ErrInvalidRequest           = errors.New("invalid request")
)
