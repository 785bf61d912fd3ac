package testdoubles

import (
	"context"
	"maps"
	"sync"

	"github.com/AntonStoeckl/lending-registry-go/circulation"
)

// SpySpanContext is the SpanContext handed out by TracingCollectorSpy.
type SpySpanContext struct {
	mu         sync.Mutex
	status     string
	attributes map[string]string
}

// SetStatus implements circulation.SpanContext.
func (c *SpySpanContext) SetStatus(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status = status
}

// AddAttribute implements circulation.SpanContext.
func (c *SpySpanContext) AddAttribute(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attributes == nil {
		c.attributes = make(map[string]string)
	}

	c.attributes[key] = value
}

// SpySpanRecord represents one started span, and its outcome once finished.
type SpySpanRecord struct {
	Name            string
	StartAttributes map[string]string
	Finished        bool
	Status          string
	EndAttributes   map[string]string
	span            *SpySpanContext
}

// TracingCollectorSpy is a TracingCollector that captures spans for inspection.
type TracingCollectorSpy struct {
	mu          sync.Mutex
	spanRecords []SpySpanRecord
}

// NewTracingCollectorSpy creates an empty TracingCollectorSpy.
func NewTracingCollectorSpy() *TracingCollectorSpy {
	return &TracingCollectorSpy{}
}

// StartSpan implements circulation.TracingCollector.
func (s *TracingCollectorSpy) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, circulation.SpanContext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	span := &SpySpanContext{}
	s.spanRecords = append(s.spanRecords, SpySpanRecord{Name: name, StartAttributes: maps.Clone(attrs), span: span})

	return ctx, span
}

// FinishSpan implements circulation.TracingCollector.
func (s *TracingCollectorSpy) FinishSpan(spanCtx circulation.SpanContext, status string, attrs map[string]string) {
	span, ok := spanCtx.(*SpySpanContext)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.spanRecords {
		if s.spanRecords[i].span == span {
			s.spanRecords[i].Finished = true
			s.spanRecords[i].Status = status
			s.spanRecords[i].EndAttributes = maps.Clone(attrs)

			return
		}
	}
}

// SpanRecords returns a copy of all captured span records.
func (s *TracingCollectorSpy) SpanRecords() []SpySpanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]SpySpanRecord(nil), s.spanRecords...)
}

// FindSpan returns the first span record with the given name.
func (s *TracingCollectorSpy) FindSpan(name string) (SpySpanRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.spanRecords {
		if record.Name == name {
			return record, true
		}
	}

	return SpySpanRecord{}, false
}

var _ circulation.TracingCollector = (*TracingCollectorSpy)(nil)
