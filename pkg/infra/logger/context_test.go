package logger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/kart-io/logger"
	"github.com/kart-io/logger/option"
)

func fieldMap(ctx context.Context) map[string]interface{} {
	fields := GetContextFields(ctx)
	m := make(map[string]interface{}, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		m[fields[i].(string)] = fields[i+1]
	}
	return m
}

func TestWithRequestID(t *testing.T) {
	tests := []struct {
		name      string
		requestID string
		wantField bool
	}{
		{name: "valid request ID", requestID: "01HZX5R3", wantField: true},
		{name: "empty request ID", requestID: "", wantField: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := WithRequestID(context.Background(), tt.requestID)

			v, ok := fieldMap(ctx)["request_id"]
			assert.Equal(t, tt.wantField, ok)
			if tt.wantField {
				assert.Equal(t, tt.requestID, v)
			}
		})
	}
}

func TestWithFields(t *testing.T) {
	tests := []struct {
		name   string
		kvs    []interface{}
		expect map[string]interface{}
	}{
		{
			name:   "pairs",
			kvs:    []interface{}{"city", "Алматы", "top_k", 5},
			expect: map[string]interface{}{"city": "Алматы", "top_k": 5},
		},
		{
			name:   "odd count drops trailing key",
			kvs:    []interface{}{"city", "Астана", "dangling"},
			expect: map[string]interface{}{"city": "Астана"},
		},
		{
			name:   "non-string key ignored",
			kvs:    []interface{}{42, "x", "category", "IT"},
			expect: map[string]interface{}{"category": "IT"},
		},
		{
			name:   "empty",
			expect: map[string]interface{}{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := WithFields(context.Background(), tt.kvs...)
			assert.Equal(t, tt.expect, fieldMap(ctx))
		})
	}
}

func TestFieldsDoNotLeakToParent(t *testing.T) {
	parent := WithRequestID(context.Background(), "parent")
	child := WithFields(parent, "stage", "search")

	assert.NotContains(t, fieldMap(parent), "stage")
	assert.Equal(t, "search", fieldMap(child)["stage"])
	assert.Equal(t, "parent", fieldMap(child)["request_id"])
}

func TestGetContextFieldsSorted(t *testing.T) {
	ctx := WithFields(context.Background(), "b", 2, "a", 1, "c", 3)
	assert.Equal(t, []interface{}{"a", 1, "b", 2, "c", 3}, GetContextFields(ctx))
	assert.Nil(t, GetContextFields(context.Background()))
}

func TestWithError(t *testing.T) {
	ctx := WithError(context.Background(), nil)
	assert.Empty(t, fieldMap(ctx))

	ctx = WithError(context.Background(), errors.New("embedding timeout"))
	m := fieldMap(ctx)
	assert.Equal(t, "embedding timeout", m["error_message"])
	assert.Equal(t, "*errors.errorString", m["error_type"])
}

func TestExtractOpenTelemetryFields(t *testing.T) {
	t.Run("recording span", func(t *testing.T) {
		tp := sdktrace.NewTracerProvider()
		t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

		ctx, span := tp.Tracer("test").Start(context.Background(), "query")
		defer span.End()

		m := fieldMap(ExtractOpenTelemetryFields(ctx))
		assert.Equal(t, span.SpanContext().TraceID().String(), m["trace_id"])
		assert.Equal(t, span.SpanContext().SpanID().String(), m["span_id"])
	})

	t.Run("noop span", func(t *testing.T) {
		ctx, _ := noop.NewTracerProvider().Tracer("test").Start(context.Background(), "query")
		assert.Empty(t, fieldMap(ExtractOpenTelemetryFields(ctx)))
	})

	t.Run("no span", func(t *testing.T) {
		assert.Empty(t, fieldMap(ExtractOpenTelemetryFields(context.Background())))
	})
}

func TestGetLogger(t *testing.T) {
	opts := option.DefaultLogOption()
	opts.Level = "DEBUG"
	opts.Format = "json"
	log, err := logger.New(opts)
	require.NoError(t, err)
	logger.SetGlobal(log)

	assert.NotNil(t, GetLogger(context.Background()))
	assert.NotNil(t, GetLogger(WithRequestID(context.Background(), "req-1")))

	ctx := WithLogger(context.Background(), log)
	assert.Equal(t, log, GetLogger(WithRequestID(ctx, "req-2")))

	LogInfo(ctx, "catalog loaded", "universities", 16)
	LogWarn(ctx, "cache unavailable")
	LogError(ctx, "rebuild failed", fmt.Errorf("index: %w", errors.New("milvus down")), true)
	LogError(ctx, "ignored", nil, false)
}

func TestUnwrapError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect []string
	}{
		{name: "nil", err: nil, expect: nil},
		{name: "single", err: errors.New("base"), expect: []string{"base"}},
		{
			name:   "wrapped twice",
			err:    fmt.Errorf("outer: %w", fmt.Errorf("middle: %w", errors.New("base"))),
			expect: []string{"outer: middle: base", "middle: base", "base"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, UnwrapError(tt.err))
		})
	}
}

func TestCaptureStackTrace(t *testing.T) {
	assert.Contains(t, captureStackTrace(1), "TestCaptureStackTrace")
}
