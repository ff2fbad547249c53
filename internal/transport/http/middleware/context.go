package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// TraceIDHeader carries the caller-supplied trace identifier. When
	// absent the middleware mints one so every response is correlatable.
	TraceIDHeader = "X-Trace-ID"
	// UserIDKey is the gin context key under which RequireAuth stores the
	// authenticated user ID.
	UserIDKey = "user_id"

	metaKey = "auth_request_meta"
)

// RequestMeta is the per-request correlation record shared by the access log,
// error responses and the auth middleware. UserID stays empty until
// RequireAuth verifies a token.
type RequestMeta struct {
	TraceID   string
	UserID    string
	IP        string
	UserAgent string
}

// EnrichContext assigns each request a trace ID, echoes it back in the
// response headers and seeds the RequestMeta consumed downstream.
func EnrichContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}
		c.Header(TraceIDHeader, traceID)

		c.Set(metaKey, &RequestMeta{
			TraceID:   traceID,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})

		c.Next()
	}
}

// GetTraceID returns the trace ID assigned by EnrichContext, or "" when the
// middleware did not run.
func GetTraceID(c *gin.Context) string {
	return GetRequestMeta(c).TraceID
}

// GetRequestMeta returns the request's correlation record. It never returns
// nil; without EnrichContext the record is empty.
func GetRequestMeta(c *gin.Context) *RequestMeta {
	if v, ok := c.Get(metaKey); ok {
		if meta, ok := v.(*RequestMeta); ok {
			return meta
		}
	}
	return &RequestMeta{}
}
