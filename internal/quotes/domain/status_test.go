package domain

import (
	"testing"

	"b2b_marketplace_backend/platform/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" approved ")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, s)

	_, err = ParseStatus("ARCHIVED")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range allStatuses {
		want := s == StatusConverted || s == StatusRejected || s == StatusCancelled || s == StatusExpired
		assert.Equal(t, want, s.IsTerminal(), s)
	}
	assert.True(t, StatusPending.CanRespond())
	assert.True(t, StatusNegotiating.CanRespond())
	assert.False(t, StatusSupplierResponded.CanRespond())
	assert.False(t, StatusApproved.CanRespond())
}

func TestParsePaymentType(t *testing.T) {
	p, err := ParsePaymentType("")
	require.NoError(t, err)
	assert.Equal(t, PaymentBankTransfer, p)

	p, err = ParsePaymentType("net_30")
	require.NoError(t, err)
	assert.Equal(t, PaymentNet30, p)

	_, err = ParsePaymentType("BITCOIN")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestParseMessageAndSenderTypes(t *testing.T) {
	mt, err := ParseMessageType("counter_offer")
	require.NoError(t, err)
	assert.Equal(t, MessageCounterOffer, mt)
	_, err = ParseMessageType("EMAIL")
	assert.Error(t, err)

	st, err := ParseSenderType("supplier")
	require.NoError(t, err)
	assert.Equal(t, SenderSupplier, st)
	_, err = ParseSenderType("ADMIN")
	assert.Error(t, err)
}
