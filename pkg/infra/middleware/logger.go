package middleware

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	logctx "github.com/kart-io/unirag/pkg/infra/logger"
	mwopts "github.com/kart-io/unirag/pkg/options/middleware"
)

// fieldsPool reuses key/value slices between requests.
var fieldsPool = sync.Pool{
	New: func() interface{} {
		s := make([]interface{}, 0, 16)
		return &s
	},
}

func acquireFields() *[]interface{} {
	return fieldsPool.Get().(*[]interface{})
}

func releaseFields(fields *[]interface{}) {
	*fields = (*fields)[:0]
	fieldsPool.Put(fields)
}

// Logger returns a middleware writing one structured access log line per request.
// Paths in SkipPaths are matched exactly, entries ending in "*" by prefix.
func Logger(opts mwopts.LoggerOptions) gin.HandlerFunc {
	skip := pathMatcher(opts.SkipPaths)

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if skip(path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := acquireFields()
		defer releaseFields(fields)

		status := c.Writer.Status()
		*fields = append(*fields,
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"client_ip", c.ClientIP(),
			"latency", latency.String(),
			"latency_ms", latency.Milliseconds(),
		)
		if len(c.Errors) > 0 {
			*fields = append(*fields, "errors", c.Errors.String())
		}

		log := logctx.GetLogger(c.Request.Context())
		switch {
		case status >= 500:
			log.Errorw("HTTP Request", (*fields)...)
		case status >= 400:
			log.Warnw("HTTP Request", (*fields)...)
		default:
			log.Infow("HTTP Request", (*fields)...)
		}
	}
}

func pathMatcher(paths []string) func(string) bool {
	exact := make(map[string]struct{}, len(paths))
	var prefixes []string
	for _, p := range paths {
		if strings.HasSuffix(p, "*") {
			prefixes = append(prefixes, strings.TrimSuffix(p, "*"))
			continue
		}
		exact[p] = struct{}{}
	}

	return func(path string) bool {
		if _, ok := exact[path]; ok {
			return true
		}
		for _, p := range prefixes {
			if strings.HasPrefix(path, p) {
				return true
			}
		}
		return false
	}
}
