package oteladapters_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/AntonStoeckl/lending-registry-go/circulation"
	"github.com/AntonStoeckl/lending-registry-go/circulation/oteladapters"
)

func newMetricsCollector() (*oteladapters.MetricsCollector, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return oteladapters.NewMetricsCollector(provider.Meter("test")), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics))

	return resourceMetrics
}

func findMetric(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Metrics {
	t.Helper()

	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name == name {
				return m
			}
		}
	}

	t.Fatalf("metric %q not found", name)

	return metricdata.Metrics{}
}

func Test_MetricsCollector_RecordDuration(t *testing.T) {
	// arrange
	collector, reader := newMetricsCollector()
	labels := map[string]string{"operation": "borrow", "status": circulation.StatusSuccess}

	// act
	collector.RecordDuration(circulation.OperationDurationMetric, 150*time.Millisecond, labels)

	// assert
	m := findMetric(t, collect(t, reader), circulation.OperationDurationMetric)
	assert.Equal(t, "s", m.Unit)
	assert.Equal(t, "Registry operation duration", m.Description)

	histogram, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, histogram.DataPoints, 1)
	assert.Equal(t, uint64(1), histogram.DataPoints[0].Count)
	assert.InDelta(t, 0.15, histogram.DataPoints[0].Sum, 0.001)

	expected := attribute.NewSet(attribute.String("operation", "borrow"), attribute.String("status", "success"))
	assert.True(t, histogram.DataPoints[0].Attributes.Equals(&expected))
}

func Test_MetricsCollector_IncrementCounter_SumsPerAttributeSet(t *testing.T) {
	// arrange
	collector, reader := newMetricsCollector()
	ctx := context.Background()
	rejected := map[string]string{"operation": "borrow", "reason": "book_unavailable"}
	limit := map[string]string{"operation": "borrow", "reason": "borrow_limit_reached"}

	// act
	collector.IncrementCounter(circulation.BusinessFailuresMetric, rejected)
	collector.IncrementCounterContext(ctx, circulation.BusinessFailuresMetric, rejected)
	collector.IncrementCounterContext(ctx, circulation.BusinessFailuresMetric, limit)

	// assert
	m := findMetric(t, collect(t, reader), circulation.BusinessFailuresMetric)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.True(t, sum.IsMonotonic)

	totals := map[string]int64{}
	for _, dp := range sum.DataPoints {
		reason, _ := dp.Attributes.Value("reason")
		totals[reason.AsString()] = dp.Value
	}

	assert.Equal(t, map[string]int64{"book_unavailable": 2, "borrow_limit_reached": 1}, totals)
}

func Test_MetricsCollector_RecordValue_KeepsLastValue(t *testing.T) {
	// arrange
	collector, reader := newMetricsCollector()

	// act
	collector.RecordValue(circulation.OverdueLoansMetric, 4, nil)
	collector.RecordValueContext(context.Background(), circulation.OverdueLoansMetric, 2, nil)

	// assert
	m := findMetric(t, collect(t, reader), circulation.OverdueLoansMetric)

	gauge, ok := m.Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, 2.0, gauge.DataPoints[0].Value)
}

func Test_MetricsCollector_UnknownMetricNames_AreAccepted(t *testing.T) {
	// arrange
	collector, reader := newMetricsCollector()

	// act
	collector.IncrementCounter("custom_total", map[string]string{"k": "v"})

	// assert
	m := findMetric(t, collect(t, reader), "custom_total")
	assert.Equal(t, "Lending registry metric", m.Description)
}

func Test_MetricsCollector_IsSafeForConcurrentUse(t *testing.T) {
	// arrange
	collector, reader := newMetricsCollector()
	var wg sync.WaitGroup

	// act
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.IncrementCounter(circulation.NotificationsMetric, map[string]string{"kind": "borrowed"})
		}()
	}

	wg.Wait()

	// assert
	sum, ok := findMetric(t, collect(t, reader), circulation.NotificationsMetric).Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(20), sum.DataPoints[0].Value)
}
