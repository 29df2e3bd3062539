package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestMeter(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return reader, provider
}

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

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestPricingMetrics(t *testing.T) {
	reader, provider := newTestMeter(t)
	m, err := NewPricingMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordDraftPriced(ctx, "standard", "llm", []string{"no_match", "unit_mismatch"}, 3*time.Millisecond)
	m.RecordDraftPriced(ctx, "standard", "manual", nil, time.Millisecond)
	m.RecordInvoiceConfirmed(ctx)
	m.RecordPayment(ctx, "partial")
	m.RecordOverdue(ctx, 0)
	m.RecordOverdue(ctx, 3)

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, got["invoice_drafts_priced_total"]))
	assert.Equal(t, int64(2), sumOf(t, got["invoice_unmatched_items_total"]))
	assert.Equal(t, int64(1), sumOf(t, got["invoice_confirmed_total"]))
	assert.Equal(t, int64(1), sumOf(t, got["invoice_payments_total"]))
	assert.Equal(t, int64(3), sumOf(t, got["invoice_overdue_marked_total"]))

	hist, ok := got["invoice_pricing_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
}

func TestDBPoolMetrics(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(4)
	t.Cleanup(func() { _ = sqlDB.Close() })

	reader, provider := newTestMeter(t)
	pool, err := NewDBPoolMetrics(provider.Meter("test"), sqlDB)
	require.NoError(t, err)

	got := collect(t, reader)
	gauge, ok := got["db_pool_connections_max"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(4), gauge.DataPoints[0].Value)

	require.NoError(t, pool.Stop())
}

func TestMeterProvider_Disabled(t *testing.T) {
	mp, err := NewMeterProvider(context.Background(), MetricsConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("x"))
	assert.NoError(t, mp.Shutdown(context.Background()))
}
