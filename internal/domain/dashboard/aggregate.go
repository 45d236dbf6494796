package dashboard

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrUnknownOperationType signals an operation outside the closed
// enumeration. It propagates to the caller: an unmapped operation is a
// contract violation, not a transient condition.
var ErrUnknownOperationType = fmt.Errorf("unknown operation type")

// DailyBranchAggregate is the per-branch, per-day dashboard summary.
// Exactly one row exists per (BranchID, Date). Counter and total fields are
// additive and never decrease within a day; SubTillBalance and
// PrimaryTillBalance are snapshots overwritten with the latest observed
// till balance.
type DailyBranchAggregate struct {
	ID         uuid.UUID
	BranchID   uuid.UUID
	BranchCode string
	BranchName string
	Date       time.Time

	NumberOfCashIn    int64
	TotalCashInAmount decimal.Decimal

	NumberOfCashOut    int64
	TotalCashOutAmount decimal.Decimal

	NumberOfRemittanceIn     int64
	TotalRemittanceInAmount  decimal.Decimal
	NumberOfRemittanceOut    int64
	TotalRemittanceOutAmount decimal.Decimal

	NumberOfMobileMoneyInMTN      int64
	TotalMobileMoneyInMTN         decimal.Decimal
	NumberOfMobileMoneyOutMTN     int64
	TotalMobileMoneyOutMTN        decimal.Decimal
	NumberOfMobileMoneyInAirtel   int64
	TotalMobileMoneyInAirtel      decimal.Decimal
	NumberOfMobileMoneyOutAirtel  int64
	TotalMobileMoneyOutAirtel     decimal.Decimal

	NumberOfLoanRepayments       int64
	TotalLoanRepaymentAmount     decimal.Decimal
	LoanDisbursementFeesCollected decimal.Decimal
	LoanFeesCollected            decimal.Decimal

	ServiceFeesCollected decimal.Decimal

	NumberOfNewMembers int64

	NumberOfOtherCashIn     int64
	TotalOtherCashInAmount  decimal.Decimal
	NumberOfOtherCashOut    int64
	TotalOtherCashOutAmount decimal.Decimal

	NumberOfInterBranchCashIn         int64
	TotalInterBranchCashInAmount      decimal.Decimal
	NumberOfInterBranchCashOut        int64
	TotalInterBranchCashOutAmount     decimal.Decimal
	NumberOfInterBranchRemittanceIn   int64
	TotalInterBranchRemittanceInAmount decimal.Decimal
	NumberOfInterBranchRemittanceOut  int64
	TotalInterBranchRemittanceOutAmount decimal.Decimal

	// Snapshot fields, last write wins
	SubTillBalance     decimal.Decimal
	PrimaryTillBalance decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewDailyBranchAggregate creates the day's row with zeroed counters and
// the branch metadata from the first observed event
func NewDailyBranchAggregate(branchID uuid.UUID, branchCode, branchName string, date time.Time) *DailyBranchAggregate {
	now := time.Now()
	return &DailyBranchAggregate{
		ID:         uuid.New(),
		BranchID:   branchID,
		BranchCode: branchCode,
		BranchName: branchName,
		Date:       DayOf(date),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// DayOf truncates a timestamp to its UTC calendar day
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Apply folds one cash operation into the aggregate. The mutation is total
// and deterministic per operation type: counters and totals accumulate,
// till balances are overwritten. Inter-branch cash and remittance
// operations increment the inter-branch pair in addition to the general
// pair. An unknown operation type returns ErrUnknownOperationType and
// leaves the aggregate untouched.
func (a *DailyBranchAggregate) Apply(ev CashOperationEvent) error {
	switch ev.OperationType {
	case OperationCashIn:
		a.NumberOfCashIn++
		a.TotalCashInAmount = a.TotalCashInAmount.Add(ev.Amount)
		a.ServiceFeesCollected = a.ServiceFeesCollected.Add(ev.Fee)
		if ev.IsInterBranch {
			a.NumberOfInterBranchCashIn++
			a.TotalInterBranchCashInAmount = a.TotalInterBranchCashInAmount.Add(ev.Amount)
		}

	case OperationCashOut:
		// the member receives Amount minus Fee in cash
		a.NumberOfCashOut++
		a.TotalCashOutAmount = a.TotalCashOutAmount.Add(ev.Amount.Sub(ev.Fee))
		a.ServiceFeesCollected = a.ServiceFeesCollected.Add(ev.Fee)
		if ev.IsInterBranch {
			a.NumberOfInterBranchCashOut++
			a.TotalInterBranchCashOutAmount = a.TotalInterBranchCashOutAmount.Add(ev.Amount.Sub(ev.Fee))
		}

	case OperationRemittanceIn:
		a.NumberOfRemittanceIn++
		a.TotalRemittanceInAmount = a.TotalRemittanceInAmount.Add(ev.Amount)
		a.ServiceFeesCollected = a.ServiceFeesCollected.Add(ev.Fee)
		if ev.IsInterBranch {
			a.NumberOfInterBranchRemittanceIn++
			a.TotalInterBranchRemittanceInAmount = a.TotalInterBranchRemittanceInAmount.Add(ev.Amount)
		}

	case OperationRemittanceOut:
		a.NumberOfRemittanceOut++
		a.TotalRemittanceOutAmount = a.TotalRemittanceOutAmount.Add(ev.Amount)
		a.ServiceFeesCollected = a.ServiceFeesCollected.Add(ev.Fee)
		if ev.IsInterBranch {
			a.NumberOfInterBranchRemittanceOut++
			a.TotalInterBranchRemittanceOutAmount = a.TotalInterBranchRemittanceOutAmount.Add(ev.Amount)
		}

	case OperationMobileMoneyInMTN:
		a.NumberOfMobileMoneyInMTN++
		a.TotalMobileMoneyInMTN = a.TotalMobileMoneyInMTN.Add(ev.Amount)
		a.ServiceFeesCollected = a.ServiceFeesCollected.Add(ev.Fee)

	case OperationMobileMoneyOutMTN:
		a.NumberOfMobileMoneyOutMTN++
		a.TotalMobileMoneyOutMTN = a.TotalMobileMoneyOutMTN.Add(ev.Amount)
		a.ServiceFeesCollected = a.ServiceFeesCollected.Add(ev.Fee)

	case OperationMobileMoneyInAirtel:
		a.NumberOfMobileMoneyInAirtel++
		a.TotalMobileMoneyInAirtel = a.TotalMobileMoneyInAirtel.Add(ev.Amount)
		a.ServiceFeesCollected = a.ServiceFeesCollected.Add(ev.Fee)

	case OperationMobileMoneyOutAirtel:
		a.NumberOfMobileMoneyOutAirtel++
		a.TotalMobileMoneyOutAirtel = a.TotalMobileMoneyOutAirtel.Add(ev.Amount)
		a.ServiceFeesCollected = a.ServiceFeesCollected.Add(ev.Fee)

	case OperationLoanRepayment:
		a.NumberOfLoanRepayments++
		a.TotalLoanRepaymentAmount = a.TotalLoanRepaymentAmount.Add(ev.Amount)
		a.LoanFeesCollected = a.LoanFeesCollected.Add(ev.Fee)

	case OperationLoanDisbursementFee:
		a.LoanDisbursementFeesCollected = a.LoanDisbursementFeesCollected.Add(ev.Amount).Add(ev.Fee)

	case OperationLoanFee:
		a.LoanFeesCollected = a.LoanFeesCollected.Add(ev.Amount).Add(ev.Fee)

	case OperationCashReplenishmentSubTill, OperationOpenOfDaySubTill:
		a.SubTillBalance = ev.CashAtHand

	case OperationCashReplenishmentPrimaryTill, OperationOpenOfDayPrimaryTill, OperationCloseOfDayPrimaryTill:
		a.PrimaryTillBalance = ev.CashAtHand

	case OperationNewMember:
		a.NumberOfNewMembers++
		a.ServiceFeesCollected = a.ServiceFeesCollected.Add(ev.Fee)

	case OperationOtherCashIn:
		a.NumberOfOtherCashIn++
		a.TotalOtherCashInAmount = a.TotalOtherCashInAmount.Add(ev.Amount)
		a.ServiceFeesCollected = a.ServiceFeesCollected.Add(ev.Fee)

	case OperationOtherCashOut:
		a.NumberOfOtherCashOut++
		a.TotalOtherCashOutAmount = a.TotalOtherCashOutAmount.Add(ev.Amount.Sub(ev.Fee))
		a.ServiceFeesCollected = a.ServiceFeesCollected.Add(ev.Fee)

	default:
		return fmt.Errorf("%w: %s", ErrUnknownOperationType, ev.OperationType)
	}

	a.UpdatedAt = time.Now()
	return nil
}
