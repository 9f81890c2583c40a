// Package middleware provides the gin middleware chain of the HTTP server.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/unirag/pkg/response"
)

// HeaderXRequestID is the default request id header.
const HeaderXRequestID = "X-Request-ID"

type requestIDKey struct{}

const ginRequestIDKey = "request_id"

func init() {
	response.RequestIDGetter = RequestIDFromGin
}

// WithRequestID stores the request id in ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// GetRequestID returns the request id stored in ctx, or "".
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// RequestIDFromGin returns the request id of c.
func RequestIDFromGin(c *gin.Context) string {
	return c.GetString(ginRequestIDKey)
}
