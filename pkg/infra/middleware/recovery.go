package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/unirag/pkg/errors"
	logctx "github.com/kart-io/unirag/pkg/infra/logger"
	mwopts "github.com/kart-io/unirag/pkg/options/middleware"
	"github.com/kart-io/unirag/pkg/response"
)

// Recovery returns a middleware that turns panics into an ErrPanic response.
// The stack is logged when EnableStackTrace is set; it is never sent to clients.
func Recovery(opts mwopts.RecoveryOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				fields := []interface{}{
					"panic", fmt.Sprint(r),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				}
				if opts.EnableStackTrace {
					fields = append(fields, "stack_trace", string(debug.Stack()))
				}
				logctx.GetLogger(c.Request.Context()).Errorw("panic recovered", fields...)

				response.Fail(c, errors.ErrPanic)
			}
		}()
		c.Next()
	}
}
