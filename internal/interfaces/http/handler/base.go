package handler

import (
	"errors"
	"net/http"

	"github.com/corebank/backend/internal/domain/dashboard"
	"github.com/corebank/backend/internal/domain/shared"
	"github.com/corebank/backend/internal/interfaces/http/dto"
	"github.com/corebank/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// HandleError maps a service error to the canonical error code and status
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	code := errorCode(err)
	h.Error(c, dto.GetHTTPStatus(code), code, err.Error())
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return dto.ErrCodeNotFound
	case errors.Is(err, shared.ErrAlreadyExists):
		return dto.ErrCodeAlreadyExists
	case errors.Is(err, shared.ErrConflict),
		errors.Is(err, shared.ErrConcurrencyConflict):
		return dto.ErrCodeConflict
	case errors.Is(err, shared.ErrInvalidInput):
		return dto.ErrCodeInvalidInput
	case errors.Is(err, shared.ErrInvalidState),
		errors.Is(err, shared.ErrPermanentPayload):
		return dto.ErrCodeInvalidState
	case errors.Is(err, shared.ErrTransientDownstream):
		return dto.ErrCodeDownstreamUnavailable
	case errors.Is(err, dashboard.ErrUnknownOperationType):
		return dto.ErrCodeUnknownOperation
	default:
		return dto.ErrCodeInternal
	}
}
