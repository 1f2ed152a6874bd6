package daemon

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DaemonMetrics holds scheduler metrics using OTEL semantic conventions
type DaemonMetrics struct {
	runs        metric.Int64Counter
	runDuration metric.Float64Histogram
}

// NewDaemonMetrics creates daemon metrics on the global meter provider
func NewDaemonMetrics() (*DaemonMetrics, error) {
	return newDaemonMetrics(otel.Meter("stocktake.daemon"))
}

func newDaemonMetricsWithProvider(provider metric.MeterProvider) (*DaemonMetrics, error) {
	return newDaemonMetrics(provider.Meter("stocktake.daemon"))
}

func newDaemonMetrics(meter metric.Meter) (*DaemonMetrics, error) {
	runs, err := meter.Int64Counter(
		"stocktake.daemon.runs",
		metric.WithDescription("Number of scheduled inventory runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"stocktake.daemon.run.duration",
		metric.WithDescription("Duration of scheduled inventory runs"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 30, 60, 120, 300, 600),
	)
	if err != nil {
		return nil, err
	}

	return &DaemonMetrics{
		runs:        runs,
		runDuration: runDuration,
	}, nil
}

// RecordRun records an inventory run with status
func (m *DaemonMetrics) RecordRun(ctx context.Context, status string, region string) {
	m.runs.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("status", status),
			attribute.String("cloud.provider", "aws"),
			attribute.String("cloud.region", region),
		),
	)
}

// RecordRunDuration records inventory run duration
func (m *DaemonMetrics) RecordRunDuration(ctx context.Context, durationSeconds float64, status string) {
	m.runDuration.Record(ctx, durationSeconds,
		metric.WithAttributes(
			attribute.String("status", status),
		),
	)
}
