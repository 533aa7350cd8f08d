package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apperrors "github.com/clinicore/consult-api/pkg/errors"
)

// ErrorResponse is the standardized error body. Reasons carries the
// itemized list when a prerequisite or finalization check fails.
type ErrorResponse struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Reasons []string `json:"reasons,omitempty"`
	TraceID string   `json:"trace_id,omitempty"`
}

// ErrorHandler translates errors attached to the gin context into the
// standard response shape.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		traceID := c.GetString(ContextRequestID)

		for _, e := range c.Errors {
			log.Error().
				Err(e.Err).
				Str("request_id", traceID).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Str("client_ip", c.ClientIP()).
				Msg("request error")
		}

		lastErr := c.Errors.Last()
		status := http.StatusInternalServerError
		message := lastErr.Error()
		var reasons []string

		if appErr, ok := apperrors.As(lastErr.Err); ok {
			status = appErr.StatusCode()
			message = appErr.Message
			reasons = appErr.Reasons
		} else if err, ok := lastErr.Err.(interface{ StatusCode() int }); ok {
			status = err.StatusCode()
		}

		c.JSON(status, ErrorResponse{
			Code:    status,
			Message: message,
			Reasons: reasons,
			TraceID: traceID,
		})
	}
}
