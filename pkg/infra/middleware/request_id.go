package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	logctx "github.com/kart-io/unirag/pkg/infra/logger"
	mwopts "github.com/kart-io/unirag/pkg/options/middleware"
)

// RequestID returns a middleware that tags each request with an id.
// An incoming header value is kept; otherwise a ULID is generated.
// The id is echoed in the response header, stored in the gin context and
// the request context, and added to the request's log fields.
func RequestID(opts mwopts.RequestIDOptions) gin.HandlerFunc {
	header := opts.Header
	if header == "" {
		header = HeaderXRequestID
	}

	return func(c *gin.Context) {
		requestID := c.GetHeader(header)
		if requestID == "" {
			requestID = ulid.Make().String()
		}

		c.Header(header, requestID)
		c.Set(ginRequestIDKey, requestID)
		ctx := WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(logctx.WithRequestID(ctx, requestID))

		c.Next()
	}
}
