package dashboard

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OperationType is the closed enumeration of cash operations a branch can
// post. Every variant maps to a fixed set of aggregate mutations; an
// operation outside this set is rejected loudly so the dashboard never
// drifts silently.
type OperationType string

const (
	OperationCashIn                       OperationType = "CASH_IN"
	OperationCashOut                      OperationType = "CASH_OUT"
	OperationRemittanceIn                 OperationType = "REMITTANCE_IN"
	OperationRemittanceOut                OperationType = "REMITTANCE_OUT"
	OperationMobileMoneyInMTN             OperationType = "MOBILE_MONEY_IN_MTN"
	OperationMobileMoneyOutMTN            OperationType = "MOBILE_MONEY_OUT_MTN"
	OperationMobileMoneyInAirtel          OperationType = "MOBILE_MONEY_IN_AIRTEL"
	OperationMobileMoneyOutAirtel         OperationType = "MOBILE_MONEY_OUT_AIRTEL"
	OperationLoanRepayment                OperationType = "LOAN_REPAYMENT"
	OperationLoanDisbursementFee          OperationType = "LOAN_DISBURSEMENT_FEE"
	OperationLoanFee                      OperationType = "LOAN_FEE"
	OperationCashReplenishmentSubTill     OperationType = "CASH_REPLENISHMENT_SUB_TILL"
	OperationCashReplenishmentPrimaryTill OperationType = "CASH_REPLENISHMENT_PRIMARY_TILL"
	OperationOpenOfDayPrimaryTill         OperationType = "OPEN_OF_DAY_PRIMARY_TILL"
	OperationOpenOfDaySubTill             OperationType = "OPEN_OF_DAY_SUB_TILL"
	OperationCloseOfDayPrimaryTill        OperationType = "CLOSE_OF_DAY_PRIMARY_TILL"
	OperationNewMember                    OperationType = "NEW_MEMBER"
	OperationOtherCashIn                  OperationType = "OTHER_CASH_IN"
	OperationOtherCashOut                 OperationType = "OTHER_CASH_OUT"
)

// AllOperationTypes returns every member of the closed enumeration
func AllOperationTypes() []OperationType {
	return []OperationType{
		OperationCashIn,
		OperationCashOut,
		OperationRemittanceIn,
		OperationRemittanceOut,
		OperationMobileMoneyInMTN,
		OperationMobileMoneyOutMTN,
		OperationMobileMoneyInAirtel,
		OperationMobileMoneyOutAirtel,
		OperationLoanRepayment,
		OperationLoanDisbursementFee,
		OperationLoanFee,
		OperationCashReplenishmentSubTill,
		OperationCashReplenishmentPrimaryTill,
		OperationOpenOfDayPrimaryTill,
		OperationOpenOfDaySubTill,
		OperationCloseOfDayPrimaryTill,
		OperationNewMember,
		OperationOtherCashIn,
		OperationOtherCashOut,
	}
}

// IsValid checks membership in the closed enumeration
func (t OperationType) IsValid() bool {
	for _, known := range AllOperationTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// CashOperationEvent is a discrete financial operation delivered by the
// posting pipeline after the ledger write commits. It is input only; the
// aggregation engine folds it into the branch-day aggregate.
type CashOperationEvent struct {
	OperationType OperationType
	Amount        decimal.Decimal
	Fee           decimal.Decimal
	BranchID      uuid.UUID
	BranchCode    string
	BranchName    string
	TellerID      uuid.UUID
	IsInterBranch bool
	// CashAtHand is the till balance observed at posting time; snapshot
	// fields on the aggregate take this value as-is
	CashAtHand decimal.Decimal
	// Reference correlates the event with its originating transaction
	Reference  string
	OccurredAt time.Time
}
