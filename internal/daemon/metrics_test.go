package daemon

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestDaemonMetrics_RecordRun(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	dm, err := newDaemonMetricsWithProvider(provider)
	require.NoError(t, err)

	ctx := context.Background()
	dm.RecordRun(ctx, "success", "us-east-1")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)

	metricData := rm.ScopeMetrics[0].Metrics[0]
	assert.Equal(t, "stocktake.daemon.runs", metricData.Name)
	assert.Equal(t, "{run}", metricData.Unit)

	sum := metricData.Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)

	attrs := sum.DataPoints[0].Attributes
	status, ok := attrs.Value("status")
	require.True(t, ok)
	assert.Equal(t, "success", status.AsString())
	region, ok := attrs.Value("cloud.region")
	require.True(t, ok)
	assert.Equal(t, "us-east-1", region.AsString())
}

func TestDaemonMetrics_RecordRunDuration(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	dm, err := newDaemonMetricsWithProvider(provider)
	require.NoError(t, err)

	ctx := context.Background()
	dm.RecordRunDuration(ctx, 12.5, "success")
	dm.RecordRunDuration(ctx, 3, "failure")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	metricData := rm.ScopeMetrics[0].Metrics[0]
	assert.Equal(t, "stocktake.daemon.run.duration", metricData.Name)

	hist := metricData.Data.(metricdata.Histogram[float64])
	require.Len(t, hist.DataPoints, 2)
	assert.Equal(t, []float64{1, 5, 10, 30, 60, 120, 300, 600}, hist.DataPoints[0].Bounds)
}
