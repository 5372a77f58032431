package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

// WellFormed reports whether the code looks like an ISO 4217 alpha code.
// Whether a currency is allowed for transfers is configuration, not domain.
func (c Currency) WellFormed() bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

type AccountStatus string

const (
	AccountStatusActive AccountStatus = "active"
	AccountStatusFrozen AccountStatus = "frozen"
	AccountStatusClosed AccountStatus = "closed"
)

// Account is a ledger balance record. Balance is exact decimal; it is
// mutated only through the conditional-debit and credit primitives of the
// account repository, never assigned directly.
type Account struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	AccountNumber string
	Currency      Currency
	Status        AccountStatus
	Balance       decimal.Decimal
	CreatedAt     time.Time
}
