package reconciliation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCommandRegistry_CoversClosedSet(t *testing.T) {
	r := DefaultCommandRegistry()

	for _, tag := range []string{
		TagTransferEvent,
		TagCashInEvent,
		TagCashOutEvent,
		TagLoanRepaymentEvent,
		TagLoanDisbursementEvent,
		TagRemittanceEvent,
		TagMobileMoneyEvent,
		TagServiceFeeEvent,
	} {
		assert.True(t, r.IsRegistered(tag), "tag %s should be registered", tag)
	}
	assert.Len(t, r.RegisteredTags(), 8)
}

func TestCommandRegistry_Decode(t *testing.T) {
	r := DefaultCommandRegistry()

	t.Run("decodes known tag to typed command", func(t *testing.T) {
		payload := []byte(`{
			"transactionReference": "TRX1",
			"debitAccount": "1001",
			"creditAccount": "2001",
			"amount": "1500.50",
			"narration": "teller transfer"
		}`)

		cmd, err := r.Decode(TagTransferEvent, payload)
		require.NoError(t, err)

		transfer, ok := cmd.(TransferCommand)
		require.True(t, ok)
		assert.Equal(t, "TRX1", transfer.TransactionReference)
		assert.Equal(t, "1001", transfer.DebitAccount)
		assert.True(t, transfer.Amount.Equal(decimal.RequireFromString("1500.50")))
		assert.Equal(t, TagTransferEvent, transfer.CommandTag())
	})

	t.Run("unknown tag is classified distinctly", func(t *testing.T) {
		cmd, err := r.Decode("WireEvent", []byte(`{}`))

		assert.Nil(t, cmd)
		assert.ErrorIs(t, err, ErrUnknownCommandTag)
		assert.NotErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("malformed payload is classified distinctly", func(t *testing.T) {
		cmd, err := r.Decode(TagCashInEvent, []byte(`{"amount": not-json`))

		assert.Nil(t, cmd)
		assert.ErrorIs(t, err, ErrMalformedPayload)
		assert.NotErrorIs(t, err, ErrUnknownCommandTag)
	})

	t.Run("empty registry rejects every tag", func(t *testing.T) {
		empty := NewCommandRegistry()

		_, err := empty.Decode(TagTransferEvent, []byte(`{}`))
		assert.ErrorIs(t, err, ErrUnknownCommandTag)
	})
}

func TestCommandRegistry_DecodeRoundTrip(t *testing.T) {
	r := DefaultCommandRegistry()

	payload := []byte(`{
		"transactionReference": "TRX9",
		"provider": "MTN",
		"direction": "IN",
		"walletNumber": "256700000001",
		"amount": "25000",
		"fee": "500"
	}`)

	cmd, err := r.Decode(TagMobileMoneyEvent, payload)
	require.NoError(t, err)

	mm, ok := cmd.(MobileMoneyCommand)
	require.True(t, ok)
	assert.Equal(t, "MTN", mm.Provider)
	assert.Equal(t, "IN", mm.Direction)
	assert.True(t, mm.Fee.Equal(decimal.NewFromInt(500)))
}
