package observability

import (
	"context"
	"testing"
	"time"

	"wingo/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestMetricsProvider_Records(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := NewMetricsProvider(config.NewTestConfig())
	require.NoError(t, mp.InitializeWithReader(reader))

	mp.RecordBetPlaced("red")
	mp.RecordBetPlaced("green")
	mp.RecordRoundSettled(TriggerScheduler, "green", 150*time.Millisecond)
	mp.RecordSettlementFailures(TriggerScheduler, 2)
	mp.RecordSettlementFailures(TriggerScheduler, 0)
	mp.RecordPayout(200)

	metrics := collect(t, reader)

	bets, ok := metrics[BetsPlacedTotal].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var placed int64
	for _, dp := range bets.DataPoints {
		placed += dp.Value
	}
	assert.Equal(t, int64(2), placed)

	failures, ok := metrics[BetSettlementFailuresTotal].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, failures.DataPoints, 1)
	assert.Equal(t, int64(2), failures.DataPoints[0].Value)

	_, ok = metrics[RoundSettlementSeconds].Data.(metricdata.Histogram[float64])
	assert.True(t, ok)

	require.NoError(t, mp.Shutdown(context.Background()))
}

func TestMetricsProvider_DisabledIsSilent(t *testing.T) {
	t.Parallel()

	var nilProvider *MetricsProvider
	assert.NotPanics(t, func() {
		nilProvider.RecordBetPlaced("red")
		nilProvider.RecordDeposit(100)
		assert.NoError(t, nilProvider.Shutdown(context.Background()))
	})

	mp := NewMetricsProvider(config.NewTestConfig())
	require.NoError(t, mp.Initialize(context.Background()))
	assert.NotPanics(t, func() {
		mp.RecordWithdrawal("completed")
		mp.RecordNATSMessagePublished("round_settled")
	})
}
