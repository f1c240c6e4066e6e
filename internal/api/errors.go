package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	seekerrors "javaseeker/internal/errors"
)

// ErrorResponse represents an HTTP error response
type ErrorResponse struct {
	Error          string                 `json:"error"`
	Code           string                 `json:"code"`
	Details        any                    `json:"details,omitempty"`
	SuggestedFixes []seekerrors.FixAction `json:"suggestedFixes,omitempty"`
	RequestID      string                 `json:"requestId,omitempty"`
}

// StatusFor maps error codes to HTTP status codes
func StatusFor(code seekerrors.ErrorCode) int {
	switch code {
	case seekerrors.ProjectNotFound, seekerrors.TargetNotFound:
		return http.StatusNotFound
	case seekerrors.ProjectNotReady:
		return http.StatusConflict
	case seekerrors.InvalidSpecifier, seekerrors.InvalidParameter:
		return http.StatusUnprocessableEntity
	case seekerrors.RateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// errorResponse builds the body for err. Uncoded errors become
// INTERNAL_ERROR; a cancelled request keeps its cause as the message.
func errorResponse(err error) (int, ErrorResponse) {
	var se *seekerrors.SeekerError
	if !errors.As(err, &se) {
		msg := "internal server error"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			msg = err.Error()
		}
		se = seekerrors.NewInternalError(msg, nil)
	}
	return StatusFor(se.Code), ErrorResponse{
		Error:          se.Message,
		Code:           string(se.Code),
		Details:        se.Details,
		SuggestedFixes: se.SuggestedFixes,
	}
}

// WriteError writes err with the status mapped from its code.
func WriteError(c *gin.Context, err error) {
	status, resp := errorResponse(err)
	resp.RequestID = GetRequestID(c)
	c.JSON(status, resp)
}
