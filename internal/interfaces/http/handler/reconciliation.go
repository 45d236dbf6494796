package handler

import (
	"encoding/json"
	"net/http"
	"time"

	reconapp "github.com/corebank/backend/internal/application/reconciliation"
	"github.com/corebank/backend/internal/domain/reconciliation"
	"github.com/corebank/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReconciliationHandler handles envelope registration and manual review
type ReconciliationHandler struct {
	BaseHandler
	service *reconapp.Service
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(service *reconapp.Service) *ReconciliationHandler {
	return &ReconciliationHandler{service: service}
}

// RegisterRoutes mounts the reconciliation endpoints on the API group
func (h *ReconciliationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reconciliation/envelopes", h.RegisterPosting)
	rg.GET("/reconciliation/manual-review", h.ListManualReview)
	rg.POST("/reconciliation/envelopes/:id/requeue", h.Requeue)
	rg.GET("/reconciliation/stats", h.Stats)
}

// RegisterPostingRequest records a posting that may need downstream replay
type RegisterPostingRequest struct {
	TransactionReferenceID string          `json:"transactionReferenceId" binding:"required"`
	CommandTag             string          `json:"commandTag" binding:"required"`
	CommandPayload         json.RawMessage `json:"commandPayload" binding:"required"`
	BranchID               string          `json:"branchId" binding:"required,uuid"`
	TellerID               string          `json:"tellerId" binding:"required,uuid"`
	AccountingDate         string          `json:"accountingDate" binding:"required"`
}

// EnvelopeResponse is the wire form of one reconciliation envelope
type EnvelopeResponse struct {
	ID                     string     `json:"id"`
	TransactionReferenceID string     `json:"transactionReferenceId"`
	CommandTag             string     `json:"commandTag"`
	NumberOfRetry          int        `json:"numberOfRetry"`
	HasPassed              bool       `json:"hasPassed"`
	RequiresManualReview   bool       `json:"requiresManualReview"`
	LastError              string     `json:"lastError,omitempty"`
	DatePassed             *time.Time `json:"datePassed,omitempty"`
	BranchID               string     `json:"branchId"`
	TellerID               string     `json:"tellerId"`
	AccountingDate         string     `json:"accountingDate"`
	CreatedAt              time.Time  `json:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"`
}

func toEnvelopeResponse(e *reconciliation.Envelope) EnvelopeResponse {
	return EnvelopeResponse{
		ID:                     e.ID.String(),
		TransactionReferenceID: e.TransactionReferenceID,
		CommandTag:             e.CommandTag,
		NumberOfRetry:          e.NumberOfRetry,
		HasPassed:              e.HasPassed,
		RequiresManualReview:   e.RequiresManualReview,
		LastError:              e.LastError,
		DatePassed:             e.DatePassed,
		BranchID:               e.BranchID.String(),
		TellerID:               e.TellerID.String(),
		AccountingDate:         e.AccountingDate.Format(dateLayout),
		CreatedAt:              e.CreatedAt,
		UpdatedAt:              e.UpdatedAt,
	}
}

// RegisterPosting stores a command envelope for later reconciliation.
// Registering the same transaction reference twice returns the existing
// envelope with a conflict status rather than a fresh row.
func (h *ReconciliationHandler) RegisterPosting(c *gin.Context) {
	var req RegisterPostingRequest
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
	accountingDate, err := time.Parse(dateLayout, req.AccountingDate)
	if err != nil {
		h.BadRequest(c, "accountingDate must be formatted as YYYY-MM-DD")
		return
	}

	envelope, err := h.service.RegisterPosting(
		c.Request.Context(),
		req.TransactionReferenceID,
		req.CommandTag,
		req.CommandPayload,
		branchID,
		tellerID,
		accountingDate,
	)
	if err != nil {
		if envelope != nil {
			// duplicate registration: surface the original envelope
			c.JSON(http.StatusConflict, dto.NewSuccessResponse(toEnvelopeResponse(envelope)))
			return
		}
		h.HandleError(c, err)
		return
	}

	h.Created(c, toEnvelopeResponse(envelope))
}

// ListManualReview pages through envelopes parked for manual review
func (h *ReconciliationHandler) ListManualReview(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	envelopes, total, err := h.service.ListManualReview(c.Request.Context(), req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]EnvelopeResponse, len(envelopes))
	for i, e := range envelopes {
		responses[i] = toEnvelopeResponse(e)
	}
	h.SuccessWithMeta(c, responses, total, req.Page, req.PageSize)
}

// Requeue puts a manually reviewed envelope back into the replay queue
func (h *ReconciliationHandler) Requeue(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "id must be a valid UUID")
		return
	}

	if err := h.service.Requeue(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"id": id.String(), "requeued": true})
}

// Stats reports envelope counts by reconciliation state
func (h *ReconciliationHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}
