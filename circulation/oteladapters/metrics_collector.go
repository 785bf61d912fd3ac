package oteladapters

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/AntonStoeckl/lending-registry-go/circulation"
)

type instrumentInfo struct {
	description string
	unit        string
}

var knownInstruments = map[string]instrumentInfo{
	circulation.OperationDurationMetric:  {description: "Registry operation duration", unit: "s"},
	circulation.OperationCallsMetric:     {description: "Registry operations by operation and status", unit: "{call}"},
	circulation.BusinessFailuresMetric:   {description: "Rejected borrow, return and catalog requests by reason", unit: "{request}"},
	circulation.NotificationsMetric:      {description: "Broadcast notifications by kind", unit: "{message}"},
	circulation.OverdueLoansMetric:       {description: "Overdue loans found by the last overdue sweep", unit: "{loan}"},
	circulation.JournalWriteErrorsMetric: {description: "Domain events the journal failed to record", unit: "{event}"},
}

func describe(name string) instrumentInfo {
	if info, ok := knownInstruments[name]; ok {
		return info
	}

	return instrumentInfo{description: "Lending registry metric"}
}

// MetricsCollector implements circulation.ContextualMetricsCollector with the OpenTelemetry metrics API:
//   - RecordDuration -> Float64Histogram in seconds
//   - IncrementCounter -> Int64Counter
//   - RecordValue -> Float64Gauge
//
// It is safe for concurrent use.
type MetricsCollector struct {
	meter      metric.Meter
	mu         sync.Mutex
	histograms map[string]metric.Float64Histogram
	counters   map[string]metric.Int64Counter
	gauges     map[string]metric.Float64Gauge
}

// NewMetricsCollector creates a collector that creates its instruments from meter.
func NewMetricsCollector(meter metric.Meter) *MetricsCollector {
	return &MetricsCollector{
		meter:      meter,
		histograms: make(map[string]metric.Float64Histogram),
		counters:   make(map[string]metric.Int64Counter),
		gauges:     make(map[string]metric.Float64Gauge),
	}
}

// RecordDuration records duration in seconds.
func (m *MetricsCollector) RecordDuration(metricName string, duration time.Duration, labels map[string]string) {
	m.RecordDurationContext(context.Background(), metricName, duration, labels)
}

// RecordDurationContext records duration in seconds, correlated with the span in ctx.
func (m *MetricsCollector) RecordDurationContext(ctx context.Context, metricName string, duration time.Duration, labels map[string]string) {
	if histogram := m.histogram(metricName); histogram != nil {
		histogram.Record(ctx, duration.Seconds(), metric.WithAttributes(toAttributes(labels)...))
	}
}

// IncrementCounter adds one to the counter.
func (m *MetricsCollector) IncrementCounter(metricName string, labels map[string]string) {
	m.IncrementCounterContext(context.Background(), metricName, labels)
}

// IncrementCounterContext adds one to the counter, correlated with the span in ctx.
func (m *MetricsCollector) IncrementCounterContext(ctx context.Context, metricName string, labels map[string]string) {
	if counter := m.counter(metricName); counter != nil {
		counter.Add(ctx, 1, metric.WithAttributes(toAttributes(labels)...))
	}
}

// RecordValue sets the gauge.
func (m *MetricsCollector) RecordValue(metricName string, value float64, labels map[string]string) {
	m.RecordValueContext(context.Background(), metricName, value, labels)
}

// RecordValueContext sets the gauge, correlated with the span in ctx.
func (m *MetricsCollector) RecordValueContext(ctx context.Context, metricName string, value float64, labels map[string]string) {
	if gauge := m.gauge(metricName); gauge != nil {
		gauge.Record(ctx, value, metric.WithAttributes(toAttributes(labels)...))
	}
}

// histogram returns the cached instrument, creating it on first use. Nil if the meter refuses it.
func (m *MetricsCollector) histogram(name string) metric.Float64Histogram {
	m.mu.Lock()
	defer m.mu.Unlock()

	if histogram, exists := m.histograms[name]; exists {
		return histogram
	}

	info := describe(name)
	if info.unit == "" {
		info.unit = "s"
	}

	histogram, err := m.meter.Float64Histogram(name, metric.WithDescription(info.description), metric.WithUnit(info.unit))
	if err != nil {
		return nil
	}

	m.histograms[name] = histogram

	return histogram
}

func (m *MetricsCollector) counter(name string) metric.Int64Counter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if counter, exists := m.counters[name]; exists {
		return counter
	}

	info := describe(name)

	counter, err := m.meter.Int64Counter(name, metric.WithDescription(info.description), metric.WithUnit(info.unit))
	if err != nil {
		return nil
	}

	m.counters[name] = counter

	return counter
}

func (m *MetricsCollector) gauge(name string) metric.Float64Gauge {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gauge, exists := m.gauges[name]; exists {
		return gauge
	}

	info := describe(name)

	gauge, err := m.meter.Float64Gauge(name, metric.WithDescription(info.description), metric.WithUnit(info.unit))
	if err != nil {
		return nil
	}

	m.gauges[name] = gauge

	return gauge
}

func toAttributes(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for key, value := range labels {
		attrs = append(attrs, attribute.String(key, value))
	}

	return attrs
}

var _ circulation.ContextualMetricsCollector = (*MetricsCollector)(nil)
