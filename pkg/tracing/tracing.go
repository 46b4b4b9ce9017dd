// Package tracing exports scan and probe spans to an OpenTelemetry
// collector over OTLP/gRPC.
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/siteintel/siteintel/pkg/defaults"
	"github.com/siteintel/siteintel/pkg/duration"
)

const instrumentation = "siteintel/scan"

// Options configures the exporter.
type Options struct {
	// Endpoint is the OTLP gRPC endpoint (e.g. "localhost:4317"). Empty
	// disables export and yields a no-op tracer.
	Endpoint string

	// ServiceName defaults to defaults.ToolName.
	ServiceName string

	// Insecure disables TLS to the collector.
	Insecure bool

	// Headers are sent with every export.
	Headers map[string]string

	// ConnectTimeout bounds exporter setup (default duration.TelemetryConnect).
	ConnectTimeout time.Duration

	// ShutdownTimeout bounds the final flush (default duration.TelemetryShutdown).
	ShutdownTimeout time.Duration
}

// Provider owns the tracer provider and its exporter.
type Provider struct {
	tp              *sdktrace.TracerProvider
	tracer          trace.Tracer
	shutdownTimeout time.Duration
}

// Setup builds a provider from opts and installs it as the global tracer
// provider. With no endpoint it returns a no-op provider.
func Setup(ctx context.Context, opts Options) (*Provider, error) {
	if opts.Endpoint == "" {
		return Noop(), nil
	}
	if opts.ServiceName == "" {
		opts.ServiceName = defaults.ToolName
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = duration.TelemetryConnect
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = duration.TelemetryShutdown
	}

	exporterOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(opts.Endpoint),
	}
	if opts.Insecure {
		exporterOpts = append(exporterOpts,
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}
	if len(opts.Headers) > 0 {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithHeaders(opts.Headers))
	}

	cctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	exporter, err := otlptracegrpc.New(cctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("tracing: otlp exporter: %w", err)
	}

	p := NewProvider(sdktrace.WithBatcher(exporter), resourceFor(opts.ServiceName))
	p.shutdownTimeout = opts.ShutdownTimeout
	otel.SetTracerProvider(p.tp)
	return p, nil
}

// NewProvider builds a provider around an explicit span processor. Tests
// use it with an in-memory recorder.
func NewProvider(processor sdktrace.TracerProviderOption, res *resource.Resource) *Provider {
	if res == nil {
		res = resourceFor(defaults.ToolName)
	}
	tp := sdktrace.NewTracerProvider(
		processor,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	return &Provider{
		tp:              tp,
		tracer:          tp.Tracer(instrumentation),
		shutdownTimeout: duration.TelemetryShutdown,
	}
}

// Noop returns a provider whose spans are discarded.
func Noop() *Provider {
	return &Provider{tracer: noop.NewTracerProvider().Tracer(instrumentation)}
}

func resourceFor(service string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(service),
		semconv.ServiceVersion(defaults.Version),
		attribute.String("service.component", "scanner"),
	)
}

// Tracer returns the scan tracer. A nil provider yields a no-op tracer.
func (p *Provider) Tracer() trace.Tracer {
	if p == nil {
		return noop.NewTracerProvider().Tracer(instrumentation)
	}
	return p.tracer
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	sctx, cancel := context.WithTimeout(ctx, p.shutdownTimeout)
	defer cancel()
	return p.tp.Shutdown(sctx)
}
