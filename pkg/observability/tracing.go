package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig mirrors the process config's tracing section (§10.1's
// ambient observability stack extended to spans, not just metrics).
// An empty Endpoint disables export: spans are still created and
// propagated through context, just never shipped anywhere, which keeps
// a bare local `hippograph` invocation from blocking on a collector
// nobody configured.
type TracingConfig struct {
	ServiceName string
	Environment string
	Endpoint    string
	SampleRate  float64
}

// NewTracerProvider builds the process tracer provider, grounded on the
// teacher's InitTracing: an OTLP/gRPC batch exporter behind a
// ratio-based sampler, tagged with a service-name resource. With no
// endpoint configured it returns a provider sampling nothing, so
// `tracer.Start` calls across the application layer stay cheap no-ops
// rather than requiring every caller to branch on whether tracing is on.
func NewTracerProvider(ctx context.Context, cfg TracingConfig) (*sdktrace.TracerProvider, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "hippograph"
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			attribute.String("deployment.environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("tracing: building resource: %w", err)
	}

	if cfg.Endpoint == "" {
		return sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.NeverSample()),
		), nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	client := otlptracegrpc.NewClient(
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithInsecure(),
	)
	exporter, err := otlptrace.New(dialCtx, client)
	if err != nil {
		return nil, fmt.Errorf("tracing: creating OTLP exporter: %w", err)
	}

	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 1.0
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
	), nil
}

// Tracer names every span under one instrumentation scope, matching the
// teacher's single `tp.Tracer(config.ServiceName)` call.
func Tracer(tp *sdktrace.TracerProvider) trace.Tracer {
	return tp.Tracer("hippograph")
}
