// Package telemetry provides OpenTelemetry metrics and tracing for the
// chart pipeline.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter

	// Counters
	generations   metric.Int64Counter
	charts        metric.Int64Counter
	recordsDrop   metric.Int64Counter
	transitions   metric.Int64Counter
	errors        metric.Int64Counter
	circuitEvents metric.Int64Counter

	// Histograms
	generationDuration metric.Float64Histogram
	pipelineDuration   metric.Float64Histogram
	points             metric.Int64Histogram

	// Gauges
	liveCharts metric.Int64UpDownCounter

	initErr error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter.
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
	// Provider supplies the meter. Nil uses the global provider.
	Provider metric.MeterProvider
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/felixgeelhaar/chartgen",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a metrics provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config.MeterName = DefaultMetricsConfig().MeterName
	}
	provider := config.Provider
	if provider == nil {
		provider = otel.GetMeterProvider()
	}

	mp := &MetricsProvider{
		meter: provider.Meter(config.MeterName, metric.WithInstrumentationVersion(config.MeterVersion)),
	}
	mp.initErr = mp.initInstruments()
	return mp
}

func (mp *MetricsProvider) initInstruments() error {
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&mp.generations, "chartgen.generation.requests", "Data generation requests", "{request}"},
		{&mp.charts, "chartgen.charts.built", "Chart build attempts", "{chart}"},
		{&mp.recordsDrop, "chartgen.records.dropped", "Records excluded by preparation or windowing", "{record}"},
		{&mp.transitions, "chartgen.state.transitions", "Request lifecycle transitions", "{transition}"},
		{&mp.errors, "chartgen.errors", "Errors by type", "{error}"},
		{&mp.circuitEvents, "chartgen.circuitbreaker.rejections", "Calls rejected by the circuit breaker or bulkhead", "{call}"},
	}
	for _, c := range counters {
		*c.dst, err = mp.meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return err
		}
	}

	mp.generationDuration, err = mp.meter.Float64Histogram(
		"chartgen.generation.duration",
		metric.WithDescription("Duration of data generation round trips"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.pipelineDuration, err = mp.meter.Float64Histogram(
		"chartgen.pipeline.duration",
		metric.WithDescription("Duration of validate, prepare, filter and build"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.points, err = mp.meter.Int64Histogram(
		"chartgen.chart.points",
		metric.WithDescription("Points plotted per chart"),
		metric.WithUnit("{point}"),
	)
	if err != nil {
		return err
	}

	mp.liveCharts, err = mp.meter.Int64UpDownCounter(
		"chartgen.charts.live",
		metric.WithDescription("Chart handles not yet released"),
		metric.WithUnit("{chart}"),
	)
	return err
}

// Error returns any initialization error.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

// RecordGeneration records a generation round trip.
func (mp *MetricsProvider) RecordGeneration(ctx context.Context, success bool, samples int, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.Bool("success", success))
	mp.generations.Add(ctx, 1, attrs)
	mp.generationDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	if !success {
		mp.errors.Add(ctx, 1, metric.WithAttributes(attribute.String("error.type", "generation")))
	}
}

// RecordChart records a pipeline run for a chart type.
func (mp *MetricsProvider) RecordChart(ctx context.Context, chartType string, success bool, points int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("chart.type", chartType),
		attribute.Bool("success", success),
	)
	mp.charts.Add(ctx, 1, attrs)
	mp.pipelineDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	if success {
		mp.points.Record(ctx, int64(points), metric.WithAttributes(attribute.String("chart.type", chartType)))
	}
}

// RecordDropped records records excluded at a pipeline stage.
func (mp *MetricsProvider) RecordDropped(ctx context.Context, stage string, n int) {
	if n <= 0 {
		return
	}
	mp.recordsDrop.Add(ctx, int64(n), metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordTransition records a lifecycle transition.
func (mp *MetricsProvider) RecordTransition(ctx context.Context, from, to string) {
	mp.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("state.from", from),
		attribute.String("state.to", to),
	))
}

// RecordError records an error by type.
func (mp *MetricsProvider) RecordError(ctx context.Context, errorType string) {
	mp.errors.Add(ctx, 1, metric.WithAttributes(attribute.String("error.type", errorType)))
}

// RecordRejection records a call refused by the resilience guard.
func (mp *MetricsProvider) RecordRejection(ctx context.Context) {
	mp.circuitEvents.Add(ctx, 1)
}

// ChartAcquired increments the live chart gauge.
func (mp *MetricsProvider) ChartAcquired(ctx context.Context) {
	mp.liveCharts.Add(ctx, 1)
}

// ChartReleased decrements the live chart gauge.
func (mp *MetricsProvider) ChartReleased(ctx context.Context) {
	mp.liveCharts.Add(ctx, -1)
}

// NoopMetricsProvider is a no-op metrics provider for testing or when metrics are disabled.
type NoopMetricsProvider struct{}

func (NoopMetricsProvider) RecordGeneration(context.Context, bool, int, time.Duration)    {}
func (NoopMetricsProvider) RecordChart(context.Context, string, bool, int, time.Duration) {}
func (NoopMetricsProvider) RecordDropped(context.Context, string, int)                    {}
func (NoopMetricsProvider) RecordTransition(context.Context, string, string)              {}
func (NoopMetricsProvider) RecordError(context.Context, string)                           {}
func (NoopMetricsProvider) RecordRejection(context.Context)                               {}
func (NoopMetricsProvider) ChartAcquired(context.Context)                                 {}
func (NoopMetricsProvider) ChartReleased(context.Context)                                 {}

// Metrics defines the interface for metrics recording.
type Metrics interface {
	RecordGeneration(ctx context.Context, success bool, samples int, duration time.Duration)
	RecordChart(ctx context.Context, chartType string, success bool, points int, duration time.Duration)
	RecordDropped(ctx context.Context, stage string, n int)
	RecordTransition(ctx context.Context, from, to string)
	RecordError(ctx context.Context, errorType string)
	RecordRejection(ctx context.Context)
	ChartAcquired(ctx context.Context)
	ChartReleased(ctx context.Context)
}

var (
	_ Metrics = (*MetricsProvider)(nil)
	_ Metrics = NoopMetricsProvider{}
)
