package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsValidate(t *testing.T) {
	o := NewOptions()
	assert.Empty(t, o.Validate(), "disabled tracing is always valid")

	o.Enabled = true
	o.ExporterType = "zipkin"
	o.SamplerRatio = 2
	assert.Len(t, o.Validate(), 2)
}

func TestDisabledProvider(t *testing.T) {
	p, err := NewProvider(context.Background(), NewOptions(), "test")
	require.NoError(t, err)
	assert.NotNil(t, p.Tracer("test"))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNoopProviderRecordsSpans(t *testing.T) {
	o := NewOptions()
	o.Enabled = true
	o.ExporterType = ExporterNoop

	p, err := NewProvider(context.Background(), o, "test")
	require.NoError(t, err)
	defer func() { _ = p.Shutdown(context.Background()) }()

	ctx, span := StartSpan(context.Background(), "unirag", "search")
	RecordError(ctx, errors.New("boom"))
	RecordError(ctx, nil)
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	span.End()

	assert.Empty(t, TraceIDFromContext(context.Background()))
}
