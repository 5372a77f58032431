package transfer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianbank/core/internal/domain"
)

func validIBANRecipient() Recipient {
	return Recipient{
		Name:     "Hans Mueller",
		IBAN:     "DE89370400440532013000",
		SwiftBIC: "COBADEFF",
		BankName: "Commerzbank",
		Country:  "Germany",
	}
}

func validSortCodeRecipient() Recipient {
	return Recipient{
		Name:                  "Mary Poppins",
		SortCode:              "123456",
		ExternalAccountNumber: "12345678",
		BankName:              "Barclays",
	}
}

func validUSARecipient() Recipient {
	return Recipient{
		Name:            "John Smith",
		RoutingNumber:   "021000021",
		USAccountNumber: "987654321",
		AccountType:     "Checking",
		BankName:        "Chase",
		BankAddress:     "270 Park Ave",
		BankCity:        "New York",
		BankState:       "NY",
		BankZIP:         "10017",
	}
}

func TestValidateRecipient(t *testing.T) {
	tests := []struct {
		name    string
		method  Method
		mutate  func(*Recipient)
		base    Recipient
		wantErr bool
	}{
		{"internal valid", MethodInternal, nil, Recipient{Name: "Bob", AccountNumber: "1234567890"}, false},
		{"internal missing account number", MethodInternal, nil, Recipient{Name: "Bob"}, true},
		{"missing name", MethodInternal, nil, Recipient{AccountNumber: "1234567890"}, true},

		{"iban valid", MethodExternalIBAN, nil, validIBANRecipient(), false},
		{"iban valid 11-char bic", MethodExternalIBAN, func(r *Recipient) { r.SwiftBIC = "COBADEFFXXX" }, validIBANRecipient(), false},
		{"iban too short", MethodExternalIBAN, func(r *Recipient) { r.IBAN = "DE8937040044" }, validIBANRecipient(), true},
		{"iban with spaces", MethodExternalIBAN, func(r *Recipient) { r.IBAN = "DE89 3704 0044 0532 0130 00" }, validIBANRecipient(), true},
		{"bic wrong length", MethodExternalIBAN, func(r *Recipient) { r.SwiftBIC = "COBADEFF1" }, validIBANRecipient(), true},
		{"iban missing country", MethodExternalIBAN, func(r *Recipient) { r.Country = "" }, validIBANRecipient(), true},
		{"iban missing bank name", MethodExternalIBAN, func(r *Recipient) { r.BankName = "" }, validIBANRecipient(), true},

		{"sort code valid", MethodExternalSortCode, nil, validSortCodeRecipient(), false},
		{"sort code five digits", MethodExternalSortCode, func(r *Recipient) { r.SortCode = "12345" }, validSortCodeRecipient(), true},
		{"sort code letters", MethodExternalSortCode, func(r *Recipient) { r.SortCode = "12a456" }, validSortCodeRecipient(), true},
		{"uk account seven digits", MethodExternalSortCode, func(r *Recipient) { r.ExternalAccountNumber = "1234567" }, validSortCodeRecipient(), true},

		{"usa valid", MethodExternalUSA, nil, validUSARecipient(), false},
		{"usa savings", MethodExternalUSA, func(r *Recipient) { r.AccountType = "Savings" }, validUSARecipient(), false},
		{"routing eight digits", MethodExternalUSA, func(r *Recipient) { r.RoutingNumber = "02100002" }, validUSARecipient(), true},
		{"bad account type", MethodExternalUSA, func(r *Recipient) { r.AccountType = "checking" }, validUSARecipient(), true},
		{"usa missing account", MethodExternalUSA, func(r *Recipient) { r.USAccountNumber = "" }, validUSARecipient(), true},

		{"unknown method", Method("wire"), nil, validIBANRecipient(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.base
			if tt.mutate != nil {
				tt.mutate(&r)
			}
			err := validateRecipient(tt.method, r)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidRecipientDetails)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"whole", "100", "100", false},
		{"two decimals", "99.99", "99.99", false},
		{"one decimal", "0.5", "0.5", false},
		{"smallest unit", "0.01", "0.01", false},
		{"zero", "0", "", true},
		{"negative", "-5.00", "", true},
		{"three decimals", "1.005", "", true},
		{"not a number", "ten", "", true},
		{"empty", "", "", true},
		{"scientific float artifact", "0.1000000000000000055511151231257827", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAmount(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			want, _ := decimal.NewFromString(tt.want)
			assert.True(t, got.Equal(want), "got %s want %s", got, want)
		})
	}
}

func TestMethodTransferType(t *testing.T) {
	cases := map[Method]domain.TransferType{
		MethodSelf:             domain.TransferTypeSelfInternalOut,
		MethodInternal:         domain.TransferTypeInternalOut,
		MethodExternalIBAN:     domain.TransferTypeExternalIBANOut,
		MethodExternalSortCode: domain.TransferTypeExternalSortOut,
		MethodExternalUSA:      domain.TransferTypeExternalUSAOut,
	}
	for method, want := range cases {
		got, ok := method.transferType()
		require.True(t, ok, method)
		assert.Equal(t, want, got)
	}

	_, ok := Method("cheque").transferType()
	assert.False(t, ok)
}

func TestGenerateReference(t *testing.T) {
	now := time.Date(2026, 3, 15, 9, 30, 45, 0, time.UTC)

	ref, err := generateReference(now)
	require.NoError(t, err)
	assert.Regexp(t, `^TRF-20260315093045-[0-9A-F]{8}$`, ref)

	other, err := generateReference(now)
	require.NoError(t, err)
	assert.NotEqual(t, ref, other)

	assert.Equal(t, ref+"-IN", creditLegReference(ref))
}
