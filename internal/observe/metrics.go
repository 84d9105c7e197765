// Package observe provides observability primitives for the tutor:
// OpenTelemetry metrics with a Prometheus exporter bridge.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A package-level
// default [Metrics] instance ([DefaultMetrics]) is provided for convenience;
// tests should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all tutor metrics.
const meterName = "github.com/RaghavAtRuntime/local-llm-tutor"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per turn stage ---

	// PresentDuration tracks how long speaking one question prompt takes,
	// including interrupted presentations.
	PresentDuration metric.Float64Histogram

	// CaptureDuration tracks response capture latency (listening plus
	// transcription).
	CaptureDuration metric.Float64Histogram

	// ScoreDuration tracks evaluation latency including the similarity call.
	ScoreDuration metric.Float64Histogram

	// FeedbackDuration tracks feedback generation and playback latency.
	FeedbackDuration metric.Float64Histogram

	// --- Counters ---

	// Verdicts counts scored turns. Use with attribute:
	//   attribute.String("tier", ...)
	Verdicts metric.Int64Counter

	// BargeIns counts presentations interrupted by learner speech.
	BargeIns metric.Int64Counter

	// PortErrors counts external port failures. Use with attributes:
	//   attribute.String("port", ...), attribute.String("kind", ...)
	PortErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live tutoring sessions.
	ActiveSessions metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// spoken-turn latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.PresentDuration, err = m.Float64Histogram("tutor.present.duration",
		metric.WithDescription("Latency of presenting one question prompt."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.CaptureDuration, err = m.Float64Histogram("tutor.capture.duration",
		metric.WithDescription("Latency of capturing one learner response."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ScoreDuration, err = m.Float64Histogram("tutor.score.duration",
		metric.WithDescription("Latency of evaluating one answer."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.FeedbackDuration, err = m.Float64Histogram("tutor.feedback.duration",
		metric.WithDescription("Latency of generating and delivering feedback."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Verdicts, err = m.Int64Counter("tutor.verdicts",
		metric.WithDescription("Total scored turns by verdict tier."),
	); err != nil {
		return nil, err
	}
	if met.BargeIns, err = m.Int64Counter("tutor.barge_ins",
		metric.WithDescription("Total presentations interrupted by learner speech."),
	); err != nil {
		return nil, err
	}
	if met.PortErrors, err = m.Int64Counter("tutor.port.errors",
		metric.WithDescription("Total external port failures by port and kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("tutor.active_sessions",
		metric.WithDescription("Number of live tutoring sessions."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordVerdict records one scored turn with its tier attribute.
func (m *Metrics) RecordVerdict(ctx context.Context, tier string) {
	m.Verdicts.Add(ctx, 1,
		metric.WithAttributes(attribute.String("tier", tier)),
	)
}

// RecordPortError records an external port failure.
func (m *Metrics) RecordPortError(ctx context.Context, port, kind string) {
	m.PortErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("port", port),
			attribute.String("kind", kind),
		),
	)
}
