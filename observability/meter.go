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

	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/version"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the embedding service.
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
		ServiceVersion: version.String(),
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the global OpenTelemetry meter provider.
// The returned provider should be shut down on application exit.
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

// Metric instrument names.
const (
	MetricItemsPulled    = "flowkit.items.pulled"
	MetricRuns           = "flowkit.runs"
	MetricFusionRewrites = "flowkit.fusion.rewrites"
	MetricRunDuration    = "flowkit.run.duration"
)

// FlowMetrics holds the instruments recorded by stream runs.
type FlowMetrics struct {
	itemsPulled    metric.Int64Counter
	runs           metric.Int64Counter
	fusionRewrites metric.Int64Counter
	runDuration    metric.Float64Histogram
}

// NewFlowMetrics creates the engine instruments on the given meter.
func NewFlowMetrics(meter metric.Meter) (*FlowMetrics, error) {
	itemsPulled, err := meter.Int64Counter(MetricItemsPulled,
		metric.WithDescription("Elements pulled from stream sources"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricItemsPulled, err)
	}

	runs, err := meter.Int64Counter(MetricRuns,
		metric.WithDescription("Completed stream runs by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricRuns, err)
	}

	fusionRewrites, err := meter.Int64Counter(MetricFusionRewrites,
		metric.WithDescription("Append-time chain rewrites by rule"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricFusionRewrites, err)
	}

	runDuration, err := meter.Float64Histogram(MetricRunDuration,
		metric.WithDescription("Duration of stream runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricRunDuration, err)
	}

	return &FlowMetrics{
		itemsPulled:    itemsPulled,
		runs:           runs,
		fusionRewrites: fusionRewrites,
		runDuration:    runDuration,
	}, nil
}

// RecordPulled adds n pulled elements.
func (m *FlowMetrics) RecordPulled(ctx context.Context, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.itemsPulled.Add(ctx, n)
}

// RecordRun records a finished run with its status and duration.
func (m *FlowMetrics) RecordRun(ctx context.Context, status string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrStatus, status))
	m.runs.Add(ctx, 1, attrs)
	m.runDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordRewrite records one applied rewrite rule.
func (m *FlowMetrics) RecordRewrite(ctx context.Context, rule string) {
	if m == nil {
		return
	}
	m.fusionRewrites.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrRule, rule)))
}
