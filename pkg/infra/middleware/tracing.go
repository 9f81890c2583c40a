package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	logctx "github.com/kart-io/unirag/pkg/infra/logger"
)

// TracerName is the tracer used for server spans.
const TracerName = "github.com/kart-io/unirag/pkg/infra/middleware"

// Tracing starts a server span per request, continuing any W3C trace
// context found in the request headers. The trace and span ids join the
// request's log fields.
func Tracing() gin.HandlerFunc {
	return func(c *gin.Context) {
		req := c.Request
		ctx := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))

		route := c.FullPath()
		if route == "" {
			route = req.URL.Path
		}

		ctx, span := otel.Tracer(TracerName).Start(ctx, req.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethod(req.Method),
				semconv.HTTPRoute(route),
				semconv.HTTPTarget(req.URL.Path),
				semconv.ServerAddress(req.Host),
			),
		)
		defer span.End()

		if id := RequestIDFromGin(c); id != "" {
			span.SetAttributes(attribute.String("http.request_id", id))
		}

		c.Request = req.WithContext(logctx.ExtractOpenTelemetryFields(ctx))
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(semconv.HTTPStatusCode(status))
		if status >= 500 {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}
	}
}
