package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oakmund/admin-iam/internal/infra/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID stamps each request with an identifier distinct from the trace
// ID: the trace ID may be inherited from an upstream caller, the request ID
// is always minted here unless the client supplies one. It rides on the
// request context so repository and use case logs can pick it up.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDHeader, reqID)

		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), logger.RequestIDKey{}, reqID),
		)

		c.Next()
	}
}
