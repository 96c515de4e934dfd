// Package telemetry wraps state-machine interpretation in OpenTelemetry
// spans: one per Interpret call, one per state transition, so a trace
// backend can show where an interpretation spent its time.
package telemetry

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
)

// Config controls whether and where spans are exported.
type Config struct {
	ServiceName  string
	OTLPEndpoint string
	Insecure     bool
	Enabled      bool
}

// DefaultConfig returns telemetry disabled by default — a fresh install
// has nowhere to send spans until an endpoint is configured.
func DefaultConfig() Config {
	return Config{
		ServiceName: "cryptoasl",
		Enabled:     false,
	}
}

// Provider owns the tracer provider's lifecycle.
type Provider struct {
	config         Config
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
}

// New builds a Provider. When cfg.Enabled is false the returned Provider
// uses a no-op tracer, so callers never need to branch on whether
// telemetry is on.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	p := &Provider{config: cfg}

	if !cfg.Enabled {
		p.tracer = otel.Tracer(cfg.ServiceName)
		return p, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build exporter: %w", err)
	}

	p.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
	)
	otel.SetTracerProvider(p.tracerProvider)
	p.tracer = p.tracerProvider.Tracer(cfg.ServiceName)
	return p, nil
}

// Shutdown flushes and releases the exporter, if one was started.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tracerProvider == nil {
		return nil
	}
	return p.tracerProvider.Shutdown(ctx)
}

// StartRun opens the root span for one interpretation of a definition,
// satisfying stateflow.Tracer.
func (p *Provider) StartRun(ctx context.Context, runID string) (context.Context, func(error)) {
	ctx, span := p.tracer.Start(ctx, "stateflow.interpret", trace.WithAttributes(
		attribute.String("cryptoasl.run_id", runID),
	))
	return ctx, endSpan(span)
}

// StartState opens a span for one state transition within a run,
// satisfying stateflow.Tracer.
func (p *Provider) StartState(ctx context.Context, stateName, stateType string) (context.Context, func(error)) {
	ctx, span := p.tracer.Start(ctx, "stateflow.state", trace.WithAttributes(
		attribute.String("cryptoasl.state_name", stateName),
		attribute.String("cryptoasl.state_type", stateType),
	))
	return ctx, endSpan(span)
}

func endSpan(span trace.Span) func(error) {
	return func(err error) {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}
}
