package transfer

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/meridianbank/core/internal/domain"
)

// Method identifies how a transfer request addresses its recipient. The set
// is closed; every switch over it carries an explicit default returning
// ErrInvalidRecipientDetails so an unknown method can never slip through.
type Method string

const (
	MethodSelf             Method = "self"
	MethodInternal         Method = "internal"
	MethodExternalIBAN     Method = "external_iban"
	MethodExternalSortCode Method = "external_sort_code"
	MethodExternalUSA      Method = "external_usa"
)

func (m Method) transferType() (domain.TransferType, bool) {
	switch m {
	case MethodSelf:
		return domain.TransferTypeSelfInternalOut, true
	case MethodInternal:
		return domain.TransferTypeInternalOut, true
	case MethodExternalIBAN:
		return domain.TransferTypeExternalIBANOut, true
	case MethodExternalSortCode:
		return domain.TransferTypeExternalSortOut, true
	case MethodExternalUSA:
		return domain.TransferTypeExternalUSAOut, true
	}
	return "", false
}

// Recipient carries the union of recipient fields; each method reads only
// its own group and ignores the rest.
type Recipient struct {
	Name string

	// self / internal
	AccountNumber string

	// external_iban
	IBAN     string
	SwiftBIC string
	Country  string

	// external_sort_code
	SortCode              string
	ExternalAccountNumber string

	// external_usa
	RoutingNumber   string
	USAccountNumber string
	AccountType     string
	BankAddress     string
	BankCity        string
	BankState       string
	BankZIP         string

	// shared by all external rails
	BankName string
}

var (
	ibanRe     = regexp.MustCompile(`^[A-Za-z0-9]{15,34}$`)
	swiftRe    = regexp.MustCompile(`^[A-Za-z0-9]{8}([A-Za-z0-9]{3})?$`)
	sortCodeRe = regexp.MustCompile(`^\d{6}$`)
	ukAcctRe   = regexp.MustCompile(`^\d{8}$`)
	routingRe  = regexp.MustCompile(`^\d{9}$`)
)

var usAccountTypes = map[string]bool{
	"Checking": true,
	"Savings":  true,
}

// validateRecipient enforces each method's field schema. Semantic checks
// that need the ledger (ownership, currency equality, account existence)
// happen later in Initiate; this stage is purely structural.
func validateRecipient(method Method, r Recipient) error {
	if r.Name == "" {
		return fieldErr("recipient name is required")
	}

	switch method {
	case MethodSelf, MethodInternal:
		if r.AccountNumber == "" {
			return fieldErr("recipient account number is required")
		}

	case MethodExternalIBAN:
		if !ibanRe.MatchString(r.IBAN) {
			return fieldErr("IBAN must be 15-34 alphanumeric characters")
		}
		if !swiftRe.MatchString(r.SwiftBIC) {
			return fieldErr("SWIFT/BIC must be 8 or 11 alphanumeric characters")
		}
		if r.BankName == "" {
			return fieldErr("bank name is required")
		}
		if r.Country == "" {
			return fieldErr("country is required")
		}

	case MethodExternalSortCode:
		if !sortCodeRe.MatchString(r.SortCode) {
			return fieldErr("sort code must be exactly 6 digits")
		}
		if !ukAcctRe.MatchString(r.ExternalAccountNumber) {
			return fieldErr("account number must be exactly 8 digits")
		}
		if r.BankName == "" {
			return fieldErr("bank name is required")
		}

	case MethodExternalUSA:
		if !routingRe.MatchString(r.RoutingNumber) {
			return fieldErr("routing number must be exactly 9 digits")
		}
		if r.USAccountNumber == "" {
			return fieldErr("account number is required")
		}
		if !usAccountTypes[r.AccountType] {
			return fieldErr("account type must be Checking or Savings")
		}
		if r.BankName == "" {
			return fieldErr("bank name is required")
		}

	default:
		return fmt.Errorf("validateRecipient: unknown method %q: %w", method, domain.ErrInvalidRecipientDetails)
	}

	return nil
}

func fieldErr(msg string) error {
	return fmt.Errorf("validateRecipient: %s: %w", msg, domain.ErrInvalidRecipientDetails)
}

// parseAmount accepts a positive fixed-point decimal with at most two
// fractional digits. All downstream comparisons stay in exact decimal;
// binary floats never touch monetary values.
func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parseAmount: %w", domain.ErrInvalidAmount)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("parseAmount: must be positive: %w", domain.ErrInvalidAmount)
	}
	if amount.Exponent() < -2 {
		return decimal.Zero, fmt.Errorf("parseAmount: more than 2 decimal places: %w", domain.ErrInvalidAmount)
	}
	return amount, nil
}
