package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/v8cov/pkg/observability"
)

func newTestReader() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return reader, mp
}

func setupTestMeter(t *testing.T) (*observability.REDMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader, mp := newTestReader()

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	return red, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func sumValue(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()

	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}

func TestREDMetrics_RecordRequest(t *testing.T) {
	t.Parallel()
	red, reader := setupTestMeter(t)
	ctx := context.Background()

	red.RecordRequest(ctx, "merge", observability.StatusOK, 100*time.Millisecond)

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(1), sumValue(t, findMetric(rm, "v8cov.requests.total")))
	require.NotNil(t, findMetric(rm, "v8cov.request.duration.seconds"))
	assert.Nil(t, findMetric(rm, "v8cov.errors.total"))
}

func TestREDMetrics_RecordRequestError(t *testing.T) {
	t.Parallel()
	red, reader := setupTestMeter(t)
	ctx := context.Background()

	red.RecordRequest(ctx, "merge", observability.StatusError, time.Second)

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(1), sumValue(t, findMetric(rm, "v8cov.errors.total")))
}

func TestREDMetrics_TrackInflight(t *testing.T) {
	t.Parallel()
	red, reader := setupTestMeter(t)
	ctx := context.Background()

	done := red.TrackInflight(ctx, "merge")

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(1), sumValue(t, findMetric(rm, "v8cov.inflight.requests")))

	done()

	rm = collectMetrics(t, reader)
	assert.Equal(t, int64(0), sumValue(t, findMetric(rm, "v8cov.inflight.requests")))
}

func TestMergeMetrics_RecordMerge(t *testing.T) {
	t.Parallel()

	reader, mp := newTestReader()

	mm, err := observability.NewMergeMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()

	mm.RecordMerge(ctx, observability.MergeStats{
		Level:     observability.LevelProcess,
		Inputs:    3,
		Scripts:   2,
		Functions: 7,
		Duration:  20 * time.Millisecond,
	})
	mm.RecordMerge(ctx, observability.MergeStats{
		Level:     observability.LevelFunction,
		Inputs:    2,
		Functions: 1,
	})

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(5), sumValue(t, findMetric(rm, "v8cov.merge.inputs.total")))
	assert.Equal(t, int64(2), sumValue(t, findMetric(rm, "v8cov.merge.scripts.total")))
	assert.Equal(t, int64(8), sumValue(t, findMetric(rm, "v8cov.merge.functions.total")))
	require.NotNil(t, findMetric(rm, "v8cov.merge.duration.seconds"))
}

func TestMergeMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var mm *observability.MergeMetrics

	assert.NotPanics(t, func() {
		mm.RecordMerge(context.Background(), observability.MergeStats{Level: observability.LevelScript})
	})
}
