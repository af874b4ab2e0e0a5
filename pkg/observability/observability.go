// Package observability provides OpenTelemetry tracing and metrics for the
// governance engine. Disabled by default; when disabled every recording
// call is a no-op, so callers never branch on it.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Config configures the OpenTelemetry providers.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	BatchTimeout   time.Duration
	Enabled        bool
	Insecure       bool
}

// DefaultConfig returns defaults with telemetry off.
func DefaultConfig() *Config {
	return &Config{
		ServiceName:    "warden",
		ServiceVersion: "1.0.0",
		Environment:    "development",
		OTLPEndpoint:   "localhost:4317",
		BatchTimeout:   5 * time.Second,
		Enabled:        false,
		Insecure:       false,
	}
}

// Provider manages the trace and metric providers plus the engine's
// counters.
type Provider struct {
	config         *Config
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	tracer         trace.Tracer
	meter          metric.Meter
	logger         *slog.Logger

	derivations     metric.Int64Counter
	verdicts        metric.Int64Counter
	stagedActions   metric.Int64Counter
	policiesLearned metric.Int64Counter
	learningSkipped metric.Int64Counter
}

// New creates an observability provider.
func New(ctx context.Context, config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig()
	}

	p := &Provider{
		config: config,
		logger: slog.Default().With("component", "observability"),
	}

	if !config.Enabled {
		p.logger.InfoContext(ctx, "observability disabled")
		return p, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			semconv.DeploymentEnvironment(config.Environment),
			attribute.String("warden.component", "engine"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if err := p.initTraceProvider(ctx, res); err != nil {
		return nil, fmt.Errorf("failed to init trace provider: %w", err)
	}
	if err := p.initMetricProvider(ctx, res); err != nil {
		return nil, fmt.Errorf("failed to init metric provider: %w", err)
	}

	p.tracer = otel.Tracer("warden.engine",
		trace.WithInstrumentationVersion(config.ServiceVersion),
	)
	p.meter = otel.Meter("warden.engine",
		metric.WithInstrumentationVersion(config.ServiceVersion),
	)

	if err := p.initCounters(); err != nil {
		return nil, fmt.Errorf("failed to init counters: %w", err)
	}

	p.logger.InfoContext(ctx, "observability initialized",
		"service", config.ServiceName,
		"environment", config.Environment,
		"endpoint", config.OTLPEndpoint,
	)

	return p, nil
}

func (p *Provider) initTraceProvider(ctx context.Context, res *resource.Resource) error {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(p.config.OTLPEndpoint),
	}
	if p.config.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	p.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(p.config.BatchTimeout),
		),
	)

	otel.SetTracerProvider(p.tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return nil
}

func (p *Provider) initMetricProvider(ctx context.Context, res *resource.Resource) error {
	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(p.config.OTLPEndpoint),
	}
	if p.config.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create metric exporter: %w", err)
	}

	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(15*time.Second),
		)),
	)

	otel.SetMeterProvider(p.meterProvider)
	return nil
}

func (p *Provider) initCounters() error {
	var err error

	p.derivations, err = p.meter.Int64Counter("warden.derivations.total",
		metric.WithDescription("Total authority/action/readiness derivations performed"),
		metric.WithUnit("{derivation}"),
	)
	if err != nil {
		return err
	}

	p.verdicts, err = p.meter.Int64Counter("warden.verdicts.total",
		metric.WithDescription("Total runtime verdicts derived, by status"),
		metric.WithUnit("{verdict}"),
	)
	if err != nil {
		return err
	}

	p.stagedActions, err = p.meter.Int64Counter("warden.staged_actions.total",
		metric.WithDescription("Total actions staged for human review"),
		metric.WithUnit("{action}"),
	)
	if err != nil {
		return err
	}

	p.policiesLearned, err = p.meter.Int64Counter("warden.policies_learned.total",
		metric.WithDescription("Total policies learned from confirmed proposals"),
		metric.WithUnit("{policy}"),
	)
	if err != nil {
		return err
	}

	p.learningSkipped, err = p.meter.Int64Counter("warden.learning_skipped.total",
		metric.WithDescription("Total learning attempts skipped by validator failure"),
		metric.WithUnit("{attempt}"),
	)
	return err
}

// Shutdown flushes and stops the providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			p.logger.ErrorContext(ctx, "failed to shutdown trace provider", "error", err)
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			p.logger.ErrorContext(ctx, "failed to shutdown metric provider", "error", err)
		}
	}
	return nil
}

// Tracer returns the configured tracer.
func (p *Provider) Tracer() trace.Tracer {
	if p.tracer == nil {
		return otel.Tracer("warden.engine")
	}
	return p.tracer
}

// StartSpan starts a span with the given name.
func (p *Provider) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return p.Tracer().Start(ctx, name, opts...)
}

// RecordDerivation counts one derivation of the named kind.
func (p *Provider) RecordDerivation(ctx context.Context, kind string) {
	if p.derivations != nil {
		p.derivations.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	}
}

// RecordVerdict counts one verdict by decision status.
func (p *Provider) RecordVerdict(ctx context.Context, status string) {
	if p.verdicts != nil {
		p.verdicts.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

// RecordStagedAction counts one staged action.
func (p *Provider) RecordStagedAction(ctx context.Context) {
	if p.stagedActions != nil {
		p.stagedActions.Add(ctx, 1)
	}
}

// RecordPolicyLearned counts one learned policy.
func (p *Provider) RecordPolicyLearned(ctx context.Context, changeType string) {
	if p.policiesLearned != nil {
		p.policiesLearned.Add(ctx, 1, metric.WithAttributes(attribute.String("change_type", changeType)))
	}
}

// RecordLearningSkipped counts one validator-rejected learning attempt.
func (p *Provider) RecordLearningSkipped(ctx context.Context) {
	if p.learningSkipped != nil {
		p.learningSkipped.Add(ctx, 1)
	}
}
