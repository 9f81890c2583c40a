// Package logger carries structured log fields through a context so that
// every line written while serving a request shares its request and trace
// identifiers.
package logger

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/trace"

	"github.com/kart-io/logger"
	"github.com/kart-io/logger/core"
)

type contextKey int

const (
	loggerFieldsKey contextKey = iota
	contextLoggerKey
)

// loggerFields 不可变使用：写入前先 clone。
type loggerFields struct {
	fields map[string]interface{}
}

func newLoggerFields() *loggerFields {
	return &loggerFields{fields: make(map[string]interface{})}
}

func (lf *loggerFields) clone() *loggerFields {
	c := newLoggerFields()
	for k, v := range lf.fields {
		c.fields[k] = v
	}
	return c
}

// toSlice returns key/value pairs ordered by key.
func (lf *loggerFields) toSlice() []interface{} {
	if len(lf.fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(lf.fields))
	for k := range lf.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	slice := make([]interface{}, 0, len(keys)*2)
	for _, k := range keys {
		slice = append(slice, k, lf.fields[k])
	}
	return slice
}

func getLoggerFields(ctx context.Context) *loggerFields {
	if lf, ok := ctx.Value(loggerFieldsKey).(*loggerFields); ok {
		return lf
	}
	return newLoggerFields()
}

func withField(ctx context.Context, key string, value interface{}) context.Context {
	lf := getLoggerFields(ctx).clone()
	lf.fields[key] = value
	return context.WithValue(ctx, loggerFieldsKey, lf)
}

// WithRequestID adds request_id to the context fields.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return withField(ctx, "request_id", requestID)
}

// WithError adds error_message and error_type to the context fields.
func WithError(ctx context.Context, err error) context.Context {
	if err == nil {
		return ctx
	}

	lf := getLoggerFields(ctx).clone()
	lf.fields["error_message"] = err.Error()
	lf.fields["error_type"] = fmt.Sprintf("%T", err)
	return context.WithValue(ctx, loggerFieldsKey, lf)
}

// WithFields adds key/value pairs to the context fields. A trailing key
// without a value and non-string keys are ignored.
func WithFields(ctx context.Context, keysAndValues ...interface{}) context.Context {
	if len(keysAndValues) < 2 {
		return ctx
	}

	lf := getLoggerFields(ctx).clone()
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			lf.fields[key] = keysAndValues[i+1]
		}
	}
	return context.WithValue(ctx, loggerFieldsKey, lf)
}

// ExtractOpenTelemetryFields copies trace_id and span_id of the recording
// span in ctx into the context fields.
func ExtractOpenTelemetryFields(ctx context.Context) context.Context {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return ctx
	}
	sc := span.SpanContext()
	if !sc.IsValid() {
		return ctx
	}

	lf := getLoggerFields(ctx).clone()
	lf.fields["trace_id"] = sc.TraceID().String()
	lf.fields["span_id"] = sc.SpanID().String()
	return context.WithValue(ctx, loggerFieldsKey, lf)
}

// GetContextFields returns the context fields as key/value pairs, or nil.
func GetContextFields(ctx context.Context) []interface{} {
	return getLoggerFields(ctx).toSlice()
}

// GetLogger returns the logger stored by WithLogger, or the global logger
// carrying the context fields.
func GetLogger(ctx context.Context) core.Logger {
	if l, ok := ctx.Value(contextLoggerKey).(core.Logger); ok {
		return l
	}

	base := logger.Global()
	fields := GetContextFields(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// WithLogger stores a pre-configured logger in ctx.
func WithLogger(ctx context.Context, log core.Logger) context.Context {
	return context.WithValue(ctx, contextLoggerKey, log)
}
