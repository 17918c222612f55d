package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rxforms/backend/internal/domain/document"
	"github.com/rxforms/backend/internal/domain/shared"
	"github.com/rxforms/backend/internal/interfaces/http/dto"
	"github.com/rxforms/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError converts an error to an HTTP response. Errors carrying a
// code (the typed document errors, render errors, domain errors) are
// mapped to their status; anything else is a 500 whose cause is only
// logged.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	var coded shared.CodedError
	if errors.As(err, &coded) {
		code := dto.NormalizeErrorCode(coded.ErrorCode())
		h.Error(c, dto.GetHTTPStatus(code), code, errorMessage(coded))
		return
	}

	h.InternalError(c, "An unexpected error occurred")
}

// errorMessage returns the client-facing message for a coded error.
// Platform errors name the target but not the underlying cause.
func errorMessage(err shared.CodedError) string {
	var platform *document.PlatformError
	if errors.As(err, &platform) {
		return "output target " + platform.Target + " is unavailable"
	}
	return err.Error()
}

// RouteNotFound answers requests that match no route with the standard
// error envelope
func RouteNotFound(c *gin.Context) {
	var h BaseHandler
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, "no route for "+c.Request.Method+" "+c.Request.URL.Path)
}
