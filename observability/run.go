package observability

import (
	"context"
	"time"

	"github.com/zoobzio/clockz"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Run status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Telemetry bundles the tracer and instruments used by stream runs.
// A nil *Telemetry is valid and records nothing.
type Telemetry struct {
	tracer  trace.Tracer
	metrics *FlowMetrics
	clock   clockz.Clock
}

// TelemetryOption configures a Telemetry.
type TelemetryOption func(*Telemetry)

// WithClock sets the clock used to time runs.
func WithClock(clock clockz.Clock) TelemetryOption {
	return func(t *Telemetry) { t.clock = clock }
}

// NewTelemetry creates run telemetry. A nil tracer falls back to a no-op
// tracer; nil metrics disable metric recording.
func NewTelemetry(tracer trace.Tracer, metrics *FlowMetrics, opts ...TelemetryOption) *Telemetry {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(InstrumentationName)
	}
	t := &Telemetry{tracer: tracer, metrics: metrics, clock: clockz.RealClock}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// GlobalTelemetry creates run telemetry on the global providers.
func GlobalTelemetry() (*Telemetry, error) {
	metrics, err := NewFlowMetrics(Meter(InstrumentationName))
	if err != nil {
		return nil, err
	}
	return NewTelemetry(Tracer(InstrumentationName), metrics), nil
}

// Metrics returns the run instruments, or nil.
func (t *Telemetry) Metrics() *FlowMetrics {
	if t == nil {
		return nil
	}
	return t.metrics
}

// RunContext tracks one stream run.
type RunContext struct {
	RunID     string
	Nodes     int
	StartTime time.Time
	telemetry *Telemetry
}

// StartRun opens the run span and returns the context carrying it.
func (t *Telemetry) StartRun(ctx context.Context, runID string, nodes int) (context.Context, *RunContext) {
	rc := &RunContext{RunID: runID, Nodes: nodes, telemetry: t}
	if t == nil {
		rc.StartTime = time.Now()
		return ctx, rc
	}
	rc.StartTime = t.clock.Now()
	ctx, _ = t.tracer.Start(ctx, SpanRun, trace.WithAttributes(
		attribute.String(AttrRunID, runID),
		attribute.Int(AttrNodes, nodes),
	))
	return ctx, rc
}

// End closes the run span started in ctx and records the run metrics.
func (rc *RunContext) End(ctx context.Context, items int64, err error) {
	if rc.telemetry == nil {
		return
	}
	duration := rc.Duration()
	status := StatusOK
	if err != nil {
		status = StatusError
	}

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.Int64(AttrItems, items),
		attribute.String(AttrStatus, status),
	)
	SetSpanError(ctx, err)
	span.End()

	m := rc.telemetry.metrics
	m.RecordPulled(ctx, items)
	m.RecordRun(ctx, status, duration)
}

// Duration returns the elapsed time since the run started.
func (rc *RunContext) Duration() time.Duration {
	if rc.telemetry == nil {
		return time.Since(rc.StartTime)
	}
	return rc.telemetry.clock.Now().Sub(rc.StartTime)
}
