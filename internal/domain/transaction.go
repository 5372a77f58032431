package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferType tags a journal row with the transfer rail and direction.
// The set is closed: settlement dispatches on it exhaustively.
type TransferType string

const (
	TransferTypeSelfInternalOut TransferType = "self_internal_out"
	TransferTypeInternalOut     TransferType = "internal_out"
	TransferTypeInternalIn      TransferType = "internal_in"
	TransferTypeExternalIBANOut TransferType = "external_iban_out"
	TransferTypeExternalSortOut TransferType = "external_sort_code_out"
	TransferTypeExternalUSAOut  TransferType = "external_usa_out"
)

// Internal reports whether settlement credits an in-house account.
func (t TransferType) Internal() bool {
	switch t {
	case TransferTypeSelfInternalOut, TransferTypeInternalOut, TransferTypeInternalIn:
		return true
	}
	return false
}

// External reports whether funds leave through a simulated external rail.
func (t TransferType) External() bool {
	switch t {
	case TransferTypeExternalIBANOut, TransferTypeExternalSortOut, TransferTypeExternalUSAOut:
		return true
	}
	return false
}

type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "PENDING"
	TransferStatusCompleted TransferStatus = "COMPLETED"
	TransferStatusDeclined  TransferStatus = "DECLINED"
	TransferStatusDelivered TransferStatus = "DELIVERED"
	TransferStatusFailed    TransferStatus = "FAILED"
)

// Terminal reports whether no further transition is allowed for the given
// transfer type. COMPLETED is terminal for internal transfers but an
// intermediate state for external rails, which still await delivery outcome.
func (s TransferStatus) Terminal(t TransferType) bool {
	switch s {
	case TransferStatusDeclined, TransferStatusDelivered, TransferStatusFailed:
		return true
	case TransferStatusCompleted:
		return !t.External()
	}
	return false
}

// Transaction is a journal row. Amount and currency are immutable once the
// row exists; only status, completed_at and admin_comment change afterwards,
// and only through the guarded status transition.
type Transaction struct {
	ID          uuid.UUID
	Reference   string
	UserID      uuid.UUID
	AccountID   uuid.UUID
	Amount      decimal.Decimal
	Currency    Currency
	Type        TransferType
	Description string
	Status      TransferStatus
	InitiatedAt time.Time
	CompletedAt *time.Time

	// Exactly one recipient-locator group is populated, determined by Type.
	RecipientName           string
	RecipientAccountNumber  *string
	RecipientUserID         *uuid.UUID
	RecipientIBAN           *string
	RecipientSwiftBIC       *string
	RecipientSortCode       *string
	RecipientExternalAcctNo *string
	RecipientRoutingNumber  *string
	RecipientBankName       *string
	RecipientCountry        *string

	SenderName          string
	SenderAccountNumber string
	SenderUserID        uuid.UUID

	// Conversion columns are forward compatibility; rate is pinned at 1.0.
	ConvertedAmount   decimal.Decimal
	ConvertedCurrency Currency
	ExchangeRate      decimal.Decimal

	ExternalBankDetails json.RawMessage
	AdminComment        *string
}

// TransferApproval is the append-only audit record of an administrative
// disposition. One row per action, never updated.
type TransferApproval struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	AdminID       uuid.UUID
	Status        TransferStatus
	Reason        string
	CreatedAt     time.Time
}
