package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransferTypeDirection(t *testing.T) {
	internal := []TransferType{TransferTypeSelfInternalOut, TransferTypeInternalOut, TransferTypeInternalIn}
	external := []TransferType{TransferTypeExternalIBANOut, TransferTypeExternalSortOut, TransferTypeExternalUSAOut}

	for _, tt := range internal {
		assert.True(t, tt.Internal(), tt)
		assert.False(t, tt.External(), tt)
	}
	for _, tt := range external {
		assert.True(t, tt.External(), tt)
		assert.False(t, tt.Internal(), tt)
	}

	unknown := TransferType("wire_out")
	assert.False(t, unknown.Internal())
	assert.False(t, unknown.External())
}

func TestTransferStatusTerminal(t *testing.T) {
	// COMPLETED ends an internal transfer but external rails still await a
	// delivery outcome.
	assert.True(t, TransferStatusCompleted.Terminal(TransferTypeInternalOut))
	assert.True(t, TransferStatusCompleted.Terminal(TransferTypeSelfInternalOut))
	assert.False(t, TransferStatusCompleted.Terminal(TransferTypeExternalIBANOut))
	assert.False(t, TransferStatusCompleted.Terminal(TransferTypeExternalUSAOut))

	for _, tt := range []TransferType{TransferTypeInternalOut, TransferTypeExternalIBANOut} {
		assert.True(t, TransferStatusDeclined.Terminal(tt))
		assert.True(t, TransferStatusDelivered.Terminal(tt))
		assert.True(t, TransferStatusFailed.Terminal(tt))
		assert.False(t, TransferStatusPending.Terminal(tt))
	}
}

func TestCurrencyWellFormed(t *testing.T) {
	assert.True(t, Currency("USD").WellFormed())
	assert.True(t, Currency("NGN").WellFormed())
	assert.False(t, Currency("usd").WellFormed())
	assert.False(t, Currency("US").WellFormed())
	assert.False(t, Currency("USDT").WellFormed())
	assert.False(t, Currency("U$D").WellFormed())
}
