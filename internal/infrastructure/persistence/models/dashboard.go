package models

import (
	"time"

	"github.com/corebank/backend/internal/domain/dashboard"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DailyBranchAggregateModel is the persistence model for the per-branch,
// per-day dashboard row. The unique index on (branch_id, date) is what the
// lock-or-create upsert in the repository relies on.
type DailyBranchAggregateModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	BranchID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_branch_day,priority:1"`
	BranchCode string    `gorm:"type:varchar(32);not null;index:idx_branch_day_code"`
	BranchName string    `gorm:"type:varchar(255);not null"`
	Date       time.Time `gorm:"type:date;not null;uniqueIndex:idx_branch_day,priority:2"`

	NumberOfCashIn    int64           `gorm:"not null;default:0"`
	TotalCashInAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	NumberOfCashOut    int64           `gorm:"not null;default:0"`
	TotalCashOutAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	NumberOfRemittanceIn     int64           `gorm:"not null;default:0"`
	TotalRemittanceInAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	NumberOfRemittanceOut    int64           `gorm:"not null;default:0"`
	TotalRemittanceOutAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	NumberOfMobileMoneyInMTN     int64           `gorm:"column:number_of_mobile_money_in_mtn;not null;default:0"`
	TotalMobileMoneyInMTN        decimal.Decimal `gorm:"column:total_mobile_money_in_mtn;type:decimal(18,4);not null;default:0"`
	NumberOfMobileMoneyOutMTN    int64           `gorm:"column:number_of_mobile_money_out_mtn;not null;default:0"`
	TotalMobileMoneyOutMTN       decimal.Decimal `gorm:"column:total_mobile_money_out_mtn;type:decimal(18,4);not null;default:0"`
	NumberOfMobileMoneyInAirtel  int64           `gorm:"not null;default:0"`
	TotalMobileMoneyInAirtel     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	NumberOfMobileMoneyOutAirtel int64           `gorm:"not null;default:0"`
	TotalMobileMoneyOutAirtel    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	NumberOfLoanRepayments        int64           `gorm:"not null;default:0"`
	TotalLoanRepaymentAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LoanDisbursementFeesCollected decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LoanFeesCollected             decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	ServiceFeesCollected decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	NumberOfNewMembers int64 `gorm:"not null;default:0"`

	NumberOfOtherCashIn     int64           `gorm:"not null;default:0"`
	TotalOtherCashInAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	NumberOfOtherCashOut    int64           `gorm:"not null;default:0"`
	TotalOtherCashOutAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	NumberOfInterBranchCashIn           int64           `gorm:"not null;default:0"`
	TotalInterBranchCashInAmount        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	NumberOfInterBranchCashOut          int64           `gorm:"not null;default:0"`
	TotalInterBranchCashOutAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	NumberOfInterBranchRemittanceIn     int64           `gorm:"not null;default:0"`
	TotalInterBranchRemittanceInAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	NumberOfInterBranchRemittanceOut    int64           `gorm:"not null;default:0"`
	TotalInterBranchRemittanceOutAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	SubTillBalance     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PrimaryTillBalance decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

// TableName returns the table name for GORM
func (DailyBranchAggregateModel) TableName() string {
	return "daily_branch_aggregates"
}

// ToDomain converts the persistence model to a domain DailyBranchAggregate
func (m *DailyBranchAggregateModel) ToDomain() *dashboard.DailyBranchAggregate {
	return &dashboard.DailyBranchAggregate{
		ID:         m.ID,
		BranchID:   m.BranchID,
		BranchCode: m.BranchCode,
		BranchName: m.BranchName,
		Date:       m.Date,

		NumberOfCashIn:    m.NumberOfCashIn,
		TotalCashInAmount: m.TotalCashInAmount,

		NumberOfCashOut:    m.NumberOfCashOut,
		TotalCashOutAmount: m.TotalCashOutAmount,

		NumberOfRemittanceIn:     m.NumberOfRemittanceIn,
		TotalRemittanceInAmount:  m.TotalRemittanceInAmount,
		NumberOfRemittanceOut:    m.NumberOfRemittanceOut,
		TotalRemittanceOutAmount: m.TotalRemittanceOutAmount,

		NumberOfMobileMoneyInMTN:     m.NumberOfMobileMoneyInMTN,
		TotalMobileMoneyInMTN:        m.TotalMobileMoneyInMTN,
		NumberOfMobileMoneyOutMTN:    m.NumberOfMobileMoneyOutMTN,
		TotalMobileMoneyOutMTN:       m.TotalMobileMoneyOutMTN,
		NumberOfMobileMoneyInAirtel:  m.NumberOfMobileMoneyInAirtel,
		TotalMobileMoneyInAirtel:     m.TotalMobileMoneyInAirtel,
		NumberOfMobileMoneyOutAirtel: m.NumberOfMobileMoneyOutAirtel,
		TotalMobileMoneyOutAirtel:    m.TotalMobileMoneyOutAirtel,

		NumberOfLoanRepayments:        m.NumberOfLoanRepayments,
		TotalLoanRepaymentAmount:      m.TotalLoanRepaymentAmount,
		LoanDisbursementFeesCollected: m.LoanDisbursementFeesCollected,
		LoanFeesCollected:             m.LoanFeesCollected,

		ServiceFeesCollected: m.ServiceFeesCollected,

		NumberOfNewMembers: m.NumberOfNewMembers,

		NumberOfOtherCashIn:     m.NumberOfOtherCashIn,
		TotalOtherCashInAmount:  m.TotalOtherCashInAmount,
		NumberOfOtherCashOut:    m.NumberOfOtherCashOut,
		TotalOtherCashOutAmount: m.TotalOtherCashOutAmount,

		NumberOfInterBranchCashIn:           m.NumberOfInterBranchCashIn,
		TotalInterBranchCashInAmount:        m.TotalInterBranchCashInAmount,
		NumberOfInterBranchCashOut:          m.NumberOfInterBranchCashOut,
		TotalInterBranchCashOutAmount:       m.TotalInterBranchCashOutAmount,
		NumberOfInterBranchRemittanceIn:     m.NumberOfInterBranchRemittanceIn,
		TotalInterBranchRemittanceInAmount:  m.TotalInterBranchRemittanceInAmount,
		NumberOfInterBranchRemittanceOut:    m.NumberOfInterBranchRemittanceOut,
		TotalInterBranchRemittanceOutAmount: m.TotalInterBranchRemittanceOutAmount,

		SubTillBalance:     m.SubTillBalance,
		PrimaryTillBalance: m.PrimaryTillBalance,

		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain DailyBranchAggregate
func (m *DailyBranchAggregateModel) FromDomain(a *dashboard.DailyBranchAggregate) {
	m.ID = a.ID
	m.BranchID = a.BranchID
	m.BranchCode = a.BranchCode
	m.BranchName = a.BranchName
	m.Date = a.Date

	m.NumberOfCashIn = a.NumberOfCashIn
	m.TotalCashInAmount = a.TotalCashInAmount

	m.NumberOfCashOut = a.NumberOfCashOut
	m.TotalCashOutAmount = a.TotalCashOutAmount

	m.NumberOfRemittanceIn = a.NumberOfRemittanceIn
	m.TotalRemittanceInAmount = a.TotalRemittanceInAmount
	m.NumberOfRemittanceOut = a.NumberOfRemittanceOut
	m.TotalRemittanceOutAmount = a.TotalRemittanceOutAmount

	m.NumberOfMobileMoneyInMTN = a.NumberOfMobileMoneyInMTN
	m.TotalMobileMoneyInMTN = a.TotalMobileMoneyInMTN
	m.NumberOfMobileMoneyOutMTN = a.NumberOfMobileMoneyOutMTN
	m.TotalMobileMoneyOutMTN = a.TotalMobileMoneyOutMTN
	m.NumberOfMobileMoneyInAirtel = a.NumberOfMobileMoneyInAirtel
	m.TotalMobileMoneyInAirtel = a.TotalMobileMoneyInAirtel
	m.NumberOfMobileMoneyOutAirtel = a.NumberOfMobileMoneyOutAirtel
	m.TotalMobileMoneyOutAirtel = a.TotalMobileMoneyOutAirtel

	m.NumberOfLoanRepayments = a.NumberOfLoanRepayments
	m.TotalLoanRepaymentAmount = a.TotalLoanRepaymentAmount
	m.LoanDisbursementFeesCollected = a.LoanDisbursementFeesCollected
	m.LoanFeesCollected = a.LoanFeesCollected

	m.ServiceFeesCollected = a.ServiceFeesCollected

	m.NumberOfNewMembers = a.NumberOfNewMembers

	m.NumberOfOtherCashIn = a.NumberOfOtherCashIn
	m.TotalOtherCashInAmount = a.TotalOtherCashInAmount
	m.NumberOfOtherCashOut = a.NumberOfOtherCashOut
	m.TotalOtherCashOutAmount = a.TotalOtherCashOutAmount

	m.NumberOfInterBranchCashIn = a.NumberOfInterBranchCashIn
	m.TotalInterBranchCashInAmount = a.TotalInterBranchCashInAmount
	m.NumberOfInterBranchCashOut = a.NumberOfInterBranchCashOut
	m.TotalInterBranchCashOutAmount = a.TotalInterBranchCashOutAmount
	m.NumberOfInterBranchRemittanceIn = a.NumberOfInterBranchRemittanceIn
	m.TotalInterBranchRemittanceInAmount = a.TotalInterBranchRemittanceInAmount
	m.NumberOfInterBranchRemittanceOut = a.NumberOfInterBranchRemittanceOut
	m.TotalInterBranchRemittanceOutAmount = a.TotalInterBranchRemittanceOutAmount

	m.SubTillBalance = a.SubTillBalance
	m.PrimaryTillBalance = a.PrimaryTillBalance

	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
}

// DailyBranchAggregateModelFromDomain creates a new persistence model from a
// domain DailyBranchAggregate
func DailyBranchAggregateModelFromDomain(a *dashboard.DailyBranchAggregate) *DailyBranchAggregateModel {
	m := &DailyBranchAggregateModel{}
	m.FromDomain(a)
	return m
}
