package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/evalgraph/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds OpenTelemetry metric instruments for evaluation observability.
type Metrics struct {
	passActive    metric.Int64UpDownCounter
	passTotal     metric.Int64Counter
	passDuration  metric.Float64Histogram
	nodeTotal     metric.Int64Counter
	nodeDuration  metric.Float64Histogram
	cacheHitTotal metric.Int64Counter
	retryTotal    metric.Int64Counter
	errorTotal    metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	passActive, err := meter.Int64UpDownCounter("pass.active",
		metric.WithDescription("Number of currently running evaluation passes"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pass.active gauge: %w", err)
	}

	passTotal, err := meter.Int64Counter("pass.total",
		metric.WithDescription("Total number of evaluation passes"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pass.total counter: %w", err)
	}

	passDuration, err := meter.Float64Histogram("pass.duration",
		metric.WithDescription("Duration of evaluation passes in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pass.duration histogram: %w", err)
	}

	nodeTotal, err := meter.Int64Counter("node.total",
		metric.WithDescription("Total number of node computations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating node.total counter: %w", err)
	}

	nodeDuration, err := meter.Float64Histogram("node.duration",
		metric.WithDescription("Duration of node computations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating node.duration histogram: %w", err)
	}

	cacheHitTotal, err := meter.Int64Counter("node.cache_hit.total",
		metric.WithDescription("Memoized node outcomes reused without recomputation"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating node.cache_hit.total counter: %w", err)
	}

	retryTotal, err := meter.Int64Counter("node.retry.total",
		metric.WithDescription("Node re-attempts after transient failures"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating node.retry.total counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("error.total",
		metric.WithDescription("Total errors by type and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}

	return &Metrics{
		passActive:    passActive,
		passTotal:     passTotal,
		passDuration:  passDuration,
		nodeTotal:     nodeTotal,
		nodeDuration:  nodeDuration,
		cacheHitTotal: cacheHitTotal,
		retryTotal:    retryTotal,
		errorTotal:    errorTotal,
	}, nil
}

// RecordPassStart increments the active pass count.
func (m *Metrics) RecordPassStart(ctx context.Context) {
	m.passActive.Add(ctx, 1)
}

// RecordPassEnd decrements active passes and records the completed pass.
func (m *Metrics) RecordPassEnd(ctx context.Context, service, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("status", status),
	)
	m.passActive.Add(ctx, -1)
	m.passTotal.Add(ctx, 1, attrs)
	m.passDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("service", service),
	))
}

// RecordNode records one node computation.
func (m *Metrics) RecordNode(ctx context.Context, kind, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("status", status),
	)
	m.nodeTotal.Add(ctx, 1, attrs)
	m.nodeDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

// RecordCacheHit records a memoized node outcome being reused.
func (m *Metrics) RecordCacheHit(ctx context.Context, kind string) {
	m.cacheHitTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

// RecordRetry records a node re-attempt after a transient failure.
func (m *Metrics) RecordRetry(ctx context.Context, kind string) {
	m.retryTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

// RecordError records an error by type and component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}
