package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/k1networth/orderflow/internal/shared/errs"
	"github.com/k1networth/orderflow/internal/shared/requestid"
)

type apiErrorResponse struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func WriteError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, apiErrorResponse{
		Error: apiError{Code: code, Message: message, RequestID: requestid.Get(c.Request.Context())},
	})
}

// statusFor maps a correlation outcome to the HTTP status and error code of the reply.
// Remote failures keep the worker's code but never its details.
func statusFor(err error, remoteCode string) (int, string) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, errs.ErrRemoteProcessing):
		if remoteCode == "" {
			remoteCode = "processing_error"
		}
		return http.StatusInternalServerError, remoteCode
	case errors.Is(err, errs.ErrTimeout):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, errs.ErrTransport), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
