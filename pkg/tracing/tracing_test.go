package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	p, err := Setup(context.Background(), Options{})
	require.NoError(t, err)

	_, span := p.Tracer().Start(context.Background(), "scan")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNilProvider(t *testing.T) {
	var p *Provider
	assert.NotNil(t, p.Tracer())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestProviderRecordsSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	p := NewProvider(sdktrace.WithSpanProcessor(rec), nil)

	ctx, parent := p.Tracer().Start(context.Background(), "scan")
	_, child := p.Tracer().Start(ctx, "probe dnsx")
	child.End()
	parent.End()

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "probe dnsx", spans[0].Name())
	assert.Equal(t, parent.SpanContext().TraceID(), spans[0].SpanContext().TraceID())
	assert.NoError(t, p.Shutdown(context.Background()))
}
