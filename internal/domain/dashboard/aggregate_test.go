package dashboard

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAggregate() *DailyBranchAggregate {
	return NewDailyBranchAggregate(uuid.New(), "B1", "Kampala Main", time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
}

func event(op OperationType, amount, fee int64) CashOperationEvent {
	return CashOperationEvent{
		OperationType: op,
		Amount:        decimal.NewFromInt(amount),
		Fee:           decimal.NewFromInt(fee),
		BranchID:      uuid.New(),
		BranchCode:    "B1",
		Reference:     "TRX-test",
		OccurredAt:    time.Now(),
	}
}

func TestNewDailyBranchAggregate(t *testing.T) {
	agg := newTestAggregate()

	assert.NotEqual(t, uuid.Nil, agg.ID)
	assert.Equal(t, "B1", agg.BranchCode)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), agg.Date, "date is truncated to the calendar day")
	assert.Zero(t, agg.NumberOfCashIn)
	assert.True(t, agg.TotalCashInAmount.IsZero())
	assert.True(t, agg.ServiceFeesCollected.IsZero())
	assert.True(t, agg.SubTillBalance.IsZero())
}

func TestApply_CashInThenCashOut(t *testing.T) {
	agg := newTestAggregate()

	// deposit of 1000 with a 10 fee
	require.NoError(t, agg.Apply(event(OperationCashIn, 1000, 10)))
	assert.Equal(t, int64(1), agg.NumberOfCashIn)
	assert.True(t, agg.TotalCashInAmount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, agg.ServiceFeesCollected.Equal(decimal.NewFromInt(10)))

	// withdrawal of 500 with a 5 fee: the member walks away with 495
	require.NoError(t, agg.Apply(event(OperationCashOut, 500, 5)))
	assert.Equal(t, int64(1), agg.NumberOfCashOut)
	assert.True(t, agg.TotalCashOutAmount.Equal(decimal.NewFromInt(495)))
	assert.True(t, agg.ServiceFeesCollected.Equal(decimal.NewFromInt(15)))

	// cash-in side untouched by the withdrawal
	assert.Equal(t, int64(1), agg.NumberOfCashIn)
	assert.True(t, agg.TotalCashInAmount.Equal(decimal.NewFromInt(1000)))
}

func TestApply_InterBranchAdditivity(t *testing.T) {
	t.Run("inter-branch cash-in updates both pairs", func(t *testing.T) {
		agg := newTestAggregate()
		ev := event(OperationCashIn, 800, 8)
		ev.IsInterBranch = true

		require.NoError(t, agg.Apply(ev))

		assert.Equal(t, int64(1), agg.NumberOfCashIn)
		assert.True(t, agg.TotalCashInAmount.Equal(decimal.NewFromInt(800)))
		assert.Equal(t, int64(1), agg.NumberOfInterBranchCashIn)
		assert.True(t, agg.TotalInterBranchCashInAmount.Equal(decimal.NewFromInt(800)))
	})

	t.Run("local cash-in leaves inter-branch pair untouched", func(t *testing.T) {
		agg := newTestAggregate()

		require.NoError(t, agg.Apply(event(OperationCashIn, 800, 8)))

		assert.Equal(t, int64(1), agg.NumberOfCashIn)
		assert.Zero(t, agg.NumberOfInterBranchCashIn)
		assert.True(t, agg.TotalInterBranchCashInAmount.IsZero())
	})

	t.Run("inter-branch remittance out", func(t *testing.T) {
		agg := newTestAggregate()
		ev := event(OperationRemittanceOut, 2000, 20)
		ev.IsInterBranch = true

		require.NoError(t, agg.Apply(ev))

		assert.Equal(t, int64(1), agg.NumberOfRemittanceOut)
		assert.True(t, agg.TotalRemittanceOutAmount.Equal(decimal.NewFromInt(2000)))
		assert.Equal(t, int64(1), agg.NumberOfInterBranchRemittanceOut)
		assert.True(t, agg.TotalInterBranchRemittanceOutAmount.Equal(decimal.NewFromInt(2000)))
	})
}

func TestApply_SnapshotFieldsOverwrite(t *testing.T) {
	agg := newTestAggregate()

	open := event(OperationOpenOfDayPrimaryTill, 0, 0)
	open.CashAtHand = decimal.NewFromInt(50000)
	require.NoError(t, agg.Apply(open))
	assert.True(t, agg.PrimaryTillBalance.Equal(decimal.NewFromInt(50000)))

	replenish := event(OperationCashReplenishmentPrimaryTill, 0, 0)
	replenish.CashAtHand = decimal.NewFromInt(80000)
	require.NoError(t, agg.Apply(replenish))
	// latest snapshot wins, no accumulation
	assert.True(t, agg.PrimaryTillBalance.Equal(decimal.NewFromInt(80000)))

	closeEv := event(OperationCloseOfDayPrimaryTill, 0, 0)
	closeEv.CashAtHand = decimal.NewFromInt(61234)
	require.NoError(t, agg.Apply(closeEv))
	assert.True(t, agg.PrimaryTillBalance.Equal(decimal.NewFromInt(61234)))

	sub := event(OperationOpenOfDaySubTill, 0, 0)
	sub.CashAtHand = decimal.NewFromInt(15000)
	require.NoError(t, agg.Apply(sub))
	assert.True(t, agg.SubTillBalance.Equal(decimal.NewFromInt(15000)))
	assert.True(t, agg.PrimaryTillBalance.Equal(decimal.NewFromInt(61234)), "sub till snapshot must not touch primary till")
}

func TestApply_MobileMoneyPerProvider(t *testing.T) {
	agg := newTestAggregate()

	require.NoError(t, agg.Apply(event(OperationMobileMoneyInMTN, 300, 3)))
	require.NoError(t, agg.Apply(event(OperationMobileMoneyOutAirtel, 200, 2)))

	assert.Equal(t, int64(1), agg.NumberOfMobileMoneyInMTN)
	assert.True(t, agg.TotalMobileMoneyInMTN.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, int64(1), agg.NumberOfMobileMoneyOutAirtel)
	assert.True(t, agg.TotalMobileMoneyOutAirtel.Equal(decimal.NewFromInt(200)))
	assert.Zero(t, agg.NumberOfMobileMoneyInAirtel)
	assert.Zero(t, agg.NumberOfMobileMoneyOutMTN)
	assert.True(t, agg.ServiceFeesCollected.Equal(decimal.NewFromInt(5)))
}

func TestApply_LoanOperations(t *testing.T) {
	agg := newTestAggregate()

	require.NoError(t, agg.Apply(event(OperationLoanRepayment, 12000, 100)))
	require.NoError(t, agg.Apply(event(OperationLoanDisbursementFee, 250, 0)))
	require.NoError(t, agg.Apply(event(OperationLoanFee, 50, 25)))

	assert.Equal(t, int64(1), agg.NumberOfLoanRepayments)
	assert.True(t, agg.TotalLoanRepaymentAmount.Equal(decimal.NewFromInt(12000)))
	assert.True(t, agg.LoanDisbursementFeesCollected.Equal(decimal.NewFromInt(250)))
	assert.True(t, agg.LoanFeesCollected.Equal(decimal.NewFromInt(175)))
}

func TestApply_UnknownOperationLeavesAggregateUnchanged(t *testing.T) {
	agg := newTestAggregate()
	require.NoError(t, agg.Apply(event(OperationCashIn, 1000, 10)))
	before := *agg

	err := agg.Apply(event(OperationType("GOLD_PURCHASE"), 999, 9))

	assert.ErrorIs(t, err, ErrUnknownOperationType)
	assert.Equal(t, before, *agg)
}

func TestApply_DeterministicReplay(t *testing.T) {
	sequence := []CashOperationEvent{
		event(OperationCashIn, 1000, 10),
		event(OperationCashOut, 500, 5),
		event(OperationNewMember, 0, 20),
		event(OperationRemittanceIn, 7000, 70),
		event(OperationOtherCashOut, 300, 3),
	}
	sequence[3].IsInterBranch = true

	replay := func() *DailyBranchAggregate {
		agg := NewDailyBranchAggregate(uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), "B1", "Kampala Main", time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
		for _, ev := range sequence {
			require.NoError(t, agg.Apply(ev))
		}
		return agg
	}

	first := replay()
	second := replay()

	assert.Equal(t, first.NumberOfCashIn, second.NumberOfCashIn)
	assert.True(t, first.TotalCashInAmount.Equal(second.TotalCashInAmount))
	assert.True(t, first.TotalCashOutAmount.Equal(second.TotalCashOutAmount))
	assert.True(t, first.ServiceFeesCollected.Equal(second.ServiceFeesCollected))
	assert.Equal(t, first.NumberOfNewMembers, second.NumberOfNewMembers)
	assert.Equal(t, first.NumberOfInterBranchRemittanceIn, second.NumberOfInterBranchRemittanceIn)
	assert.True(t, first.TotalOtherCashOutAmount.Equal(second.TotalOtherCashOutAmount))
}

func TestApply_CountersNeverDecrease(t *testing.T) {
	agg := newTestAggregate()

	var lastFees decimal.Decimal
	var lastCashIn int64
	for i := 0; i < 10; i++ {
		require.NoError(t, agg.Apply(event(OperationCashIn, 100, 1)))
		assert.GreaterOrEqual(t, agg.NumberOfCashIn, lastCashIn)
		assert.True(t, agg.ServiceFeesCollected.GreaterThanOrEqual(lastFees))
		lastCashIn = agg.NumberOfCashIn
		lastFees = agg.ServiceFeesCollected
	}
	assert.Equal(t, int64(10), agg.NumberOfCashIn)
}

func TestOperationType_IsValid(t *testing.T) {
	for _, op := range AllOperationTypes() {
		assert.True(t, op.IsValid(), "%s should be valid", op)
	}
	assert.False(t, OperationType("GOLD_PURCHASE").IsValid())
	assert.False(t, OperationType("").IsValid())
}
