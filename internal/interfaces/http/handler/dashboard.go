package handler

import (
	"time"

	dashboardapp "github.com/corebank/backend/internal/application/dashboard"
	"github.com/corebank/backend/internal/domain/dashboard"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// dateLayout is the calendar-day format used across the dashboard API
const dateLayout = "2006-01-02"

// DashboardHandler handles cash operation recording and branch-day queries
type DashboardHandler struct {
	BaseHandler
	aggregation *dashboardapp.AggregationService
	query       *dashboardapp.QueryService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(aggregation *dashboardapp.AggregationService, query *dashboardapp.QueryService) *DashboardHandler {
	return &DashboardHandler{
		aggregation: aggregation,
		query:       query,
	}
}

// RegisterRoutes mounts the dashboard endpoints on the API group
func (h *DashboardHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/operations", h.RecordOperation)
	rg.GET("/operations/types", h.SupportedOperations)
	rg.GET("/dashboard/branches/:branchId/days/:date", h.GetBranchDay)
	rg.GET("/dashboard/days", h.ListDays)
}

// RecordOperationRequest is the posting pipeline's notification of one
// completed cash operation
type RecordOperationRequest struct {
	OperationType string          `json:"operationType" binding:"required,operation_type"`
	Amount        decimal.Decimal `json:"amount"`
	Fee           decimal.Decimal `json:"fee"`
	BranchID      string          `json:"branchId" binding:"required,uuid"`
	BranchCode    string          `json:"branchCode" binding:"required"`
	BranchName    string          `json:"branchName"`
	TellerID      string          `json:"tellerId" binding:"required,uuid"`
	IsInterBranch bool            `json:"isInterBranch"`
	CashAtHand    decimal.Decimal `json:"cashAtHand"`
	Reference     string          `json:"reference" binding:"required"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

// AggregateResponse is the wire form of one branch-day aggregate
type AggregateResponse struct {
	BranchID   string `json:"branchId"`
	BranchCode string `json:"branchCode"`
	BranchName string `json:"branchName"`
	Date       string `json:"date"`

	NumberOfCashIn    int64           `json:"numberOfCashIn"`
	TotalCashInAmount decimal.Decimal `json:"totalCashInAmount"`

	NumberOfCashOut    int64           `json:"numberOfCashOut"`
	TotalCashOutAmount decimal.Decimal `json:"totalCashOutAmount"`

	NumberOfRemittanceIn     int64           `json:"numberOfRemittanceIn"`
	TotalRemittanceInAmount  decimal.Decimal `json:"totalRemittanceInAmount"`
	NumberOfRemittanceOut    int64           `json:"numberOfRemittanceOut"`
	TotalRemittanceOutAmount decimal.Decimal `json:"totalRemittanceOutAmount"`

	NumberOfMobileMoneyInMTN     int64           `json:"numberOfMobileMoneyInMtn"`
	TotalMobileMoneyInMTN        decimal.Decimal `json:"totalMobileMoneyInMtn"`
	NumberOfMobileMoneyOutMTN    int64           `json:"numberOfMobileMoneyOutMtn"`
	TotalMobileMoneyOutMTN       decimal.Decimal `json:"totalMobileMoneyOutMtn"`
	NumberOfMobileMoneyInAirtel  int64           `json:"numberOfMobileMoneyInAirtel"`
	TotalMobileMoneyInAirtel     decimal.Decimal `json:"totalMobileMoneyInAirtel"`
	NumberOfMobileMoneyOutAirtel int64           `json:"numberOfMobileMoneyOutAirtel"`
	TotalMobileMoneyOutAirtel    decimal.Decimal `json:"totalMobileMoneyOutAirtel"`

	NumberOfLoanRepayments        int64           `json:"numberOfLoanRepayments"`
	TotalLoanRepaymentAmount      decimal.Decimal `json:"totalLoanRepaymentAmount"`
	LoanDisbursementFeesCollected decimal.Decimal `json:"loanDisbursementFeesCollected"`
	LoanFeesCollected             decimal.Decimal `json:"loanFeesCollected"`

	ServiceFeesCollected decimal.Decimal `json:"serviceFeesCollected"`

	NumberOfNewMembers int64 `json:"numberOfNewMembers"`

	NumberOfOtherCashIn     int64           `json:"numberOfOtherCashIn"`
	TotalOtherCashInAmount  decimal.Decimal `json:"totalOtherCashInAmount"`
	NumberOfOtherCashOut    int64           `json:"numberOfOtherCashOut"`
	TotalOtherCashOutAmount decimal.Decimal `json:"totalOtherCashOutAmount"`

	NumberOfInterBranchCashIn           int64           `json:"numberOfInterBranchCashIn"`
	TotalInterBranchCashInAmount        decimal.Decimal `json:"totalInterBranchCashInAmount"`
	NumberOfInterBranchCashOut          int64           `json:"numberOfInterBranchCashOut"`
	TotalInterBranchCashOutAmount       decimal.Decimal `json:"totalInterBranchCashOutAmount"`
	NumberOfInterBranchRemittanceIn     int64           `json:"numberOfInterBranchRemittanceIn"`
	TotalInterBranchRemittanceInAmount  decimal.Decimal `json:"totalInterBranchRemittanceInAmount"`
	NumberOfInterBranchRemittanceOut    int64           `json:"numberOfInterBranchRemittanceOut"`
	TotalInterBranchRemittanceOutAmount decimal.Decimal `json:"totalInterBranchRemittanceOutAmount"`

	SubTillBalance     decimal.Decimal `json:"subTillBalance"`
	PrimaryTillBalance decimal.Decimal `json:"primaryTillBalance"`

	UpdatedAt time.Time `json:"updatedAt"`
}

func toAggregateResponse(a *dashboard.DailyBranchAggregate) AggregateResponse {
	return AggregateResponse{
		BranchID:   a.BranchID.String(),
		BranchCode: a.BranchCode,
		BranchName: a.BranchName,
		Date:       a.Date.Format(dateLayout),

		NumberOfCashIn:    a.NumberOfCashIn,
		TotalCashInAmount: a.TotalCashInAmount,

		NumberOfCashOut:    a.NumberOfCashOut,
		TotalCashOutAmount: a.TotalCashOutAmount,

		NumberOfRemittanceIn:     a.NumberOfRemittanceIn,
		TotalRemittanceInAmount:  a.TotalRemittanceInAmount,
		NumberOfRemittanceOut:    a.NumberOfRemittanceOut,
		TotalRemittanceOutAmount: a.TotalRemittanceOutAmount,

		NumberOfMobileMoneyInMTN:     a.NumberOfMobileMoneyInMTN,
		TotalMobileMoneyInMTN:        a.TotalMobileMoneyInMTN,
		NumberOfMobileMoneyOutMTN:    a.NumberOfMobileMoneyOutMTN,
		TotalMobileMoneyOutMTN:       a.TotalMobileMoneyOutMTN,
		NumberOfMobileMoneyInAirtel:  a.NumberOfMobileMoneyInAirtel,
		TotalMobileMoneyInAirtel:     a.TotalMobileMoneyInAirtel,
		NumberOfMobileMoneyOutAirtel: a.NumberOfMobileMoneyOutAirtel,
		TotalMobileMoneyOutAirtel:    a.TotalMobileMoneyOutAirtel,

		NumberOfLoanRepayments:        a.NumberOfLoanRepayments,
		TotalLoanRepaymentAmount:      a.TotalLoanRepaymentAmount,
		LoanDisbursementFeesCollected: a.LoanDisbursementFeesCollected,
		LoanFeesCollected:             a.LoanFeesCollected,

		ServiceFeesCollected: a.ServiceFeesCollected,

		NumberOfNewMembers: a.NumberOfNewMembers,

		NumberOfOtherCashIn:     a.NumberOfOtherCashIn,
		TotalOtherCashInAmount:  a.TotalOtherCashInAmount,
		NumberOfOtherCashOut:    a.NumberOfOtherCashOut,
		TotalOtherCashOutAmount: a.TotalOtherCashOutAmount,

		NumberOfInterBranchCashIn:           a.NumberOfInterBranchCashIn,
		TotalInterBranchCashInAmount:        a.TotalInterBranchCashInAmount,
		NumberOfInterBranchCashOut:          a.NumberOfInterBranchCashOut,
		TotalInterBranchCashOutAmount:       a.TotalInterBranchCashOutAmount,
		NumberOfInterBranchRemittanceIn:     a.NumberOfInterBranchRemittanceIn,
		TotalInterBranchRemittanceInAmount:  a.TotalInterBranchRemittanceInAmount,
		NumberOfInterBranchRemittanceOut:    a.NumberOfInterBranchRemittanceOut,
		TotalInterBranchRemittanceOutAmount: a.TotalInterBranchRemittanceOutAmount,

		SubTillBalance:     a.SubTillBalance,
		PrimaryTillBalance: a.PrimaryTillBalance,

		UpdatedAt: a.UpdatedAt,
	}
}

// RecordOperation folds one completed cash operation into its branch-day row
func (h *DashboardHandler) RecordOperation(c *gin.Context) {
	var req RecordOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		h.BadRequest(c, "branchId must be a valid UUID")
		return
	}
	tellerID, err := uuid.Parse(req.TellerID)
	if err != nil {
		h.BadRequest(c, "tellerId must be a valid UUID")
		return
	}

	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	ev := dashboard.CashOperationEvent{
		OperationType: dashboard.OperationType(req.OperationType),
		Amount:        req.Amount,
		Fee:           req.Fee,
		BranchID:      branchID,
		BranchCode:    req.BranchCode,
		BranchName:    req.BranchName,
		TellerID:      tellerID,
		IsInterBranch: req.IsInterBranch,
		CashAtHand:    req.CashAtHand,
		Reference:     req.Reference,
		OccurredAt:    occurredAt,
	}

	aggregate, err := h.aggregation.Record(c.Request.Context(), ev)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toAggregateResponse(aggregate))
}

// GetBranchDay returns the aggregate for one branch and calendar day
func (h *DashboardHandler) GetBranchDay(c *gin.Context) {
	branchID, err := uuid.Parse(c.Param("branchId"))
	if err != nil {
		h.BadRequest(c, "branchId must be a valid UUID")
		return
	}

	date, err := time.Parse(dateLayout, c.Param("date"))
	if err != nil {
		h.BadRequest(c, "date must be formatted as YYYY-MM-DD")
		return
	}

	aggregate, err := h.query.GetBranchDay(c.Request.Context(), branchID, date)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toAggregateResponse(aggregate))
}

// ListDaysRequest filters the cross-branch range query
type ListDaysRequest struct {
	From     string `form:"from" binding:"required"`
	To       string `form:"to" binding:"required"`
	BranchID string `form:"branch_id" binding:"omitempty,uuid"`
}

// ListDays returns aggregates across branches for a date range
func (h *DashboardHandler) ListDays(c *gin.Context) {
	var req ListDaysRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	from, err := time.Parse(dateLayout, req.From)
	if err != nil {
		h.BadRequest(c, "from must be formatted as YYYY-MM-DD")
		return
	}
	to, err := time.Parse(dateLayout, req.To)
	if err != nil {
		h.BadRequest(c, "to must be formatted as YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		h.BadRequest(c, "to must not precede from")
		return
	}

	var branchID *uuid.UUID
	if req.BranchID != "" {
		id, err := uuid.Parse(req.BranchID)
		if err != nil {
			h.BadRequest(c, "branch_id must be a valid UUID")
			return
		}
		branchID = &id
	}

	aggregates, err := h.query.ListRange(c.Request.Context(), from, to, branchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]AggregateResponse, len(aggregates))
	for i, a := range aggregates {
		responses[i] = toAggregateResponse(a)
	}
	h.Success(c, responses)
}

// SupportedOperations lists the closed operation type enumeration
func (h *DashboardHandler) SupportedOperations(c *gin.Context) {
	types := dashboard.AllOperationTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	h.Success(c, gin.H{"operationTypes": names})
}
