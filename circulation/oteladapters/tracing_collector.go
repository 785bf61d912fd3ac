package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/lending-registry-go/circulation"
)

// TracingCollector implements circulation.TracingCollector with the OpenTelemetry tracing API.
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector creates a collector that starts its spans from tracer.
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// StartSpan starts a span carrying attrs and returns the context that holds it.
func (t *TracingCollector) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, circulation.SpanContext) {
	spanCtx, span := t.tracer.Start(ctx, name, trace.WithAttributes(toAttributes(attrs)...))

	return spanCtx, &OTelSpanContext{span: span}
}

// FinishSpan adds attrs, sets the status and ends the span.
// A "reason" attribute, present for rejected requests, becomes the error description.
func (t *TracingCollector) FinishSpan(spanCtx circulation.SpanContext, status string, attrs map[string]string) {
	otelSpanCtx, ok := spanCtx.(*OTelSpanContext)
	if !ok {
		return
	}

	otelSpanCtx.span.SetAttributes(toAttributes(attrs)...)
	otelSpanCtx.setStatus(status, attrs["reason"])
	otelSpanCtx.span.End()
}

// OTelSpanContext implements circulation.SpanContext by wrapping an OpenTelemetry span.
type OTelSpanContext struct {
	span trace.Span
}

// SetStatus maps circulation.StatusSuccess and circulation.StatusError to span status codes.
// Any other status is recorded as an attribute.
func (s *OTelSpanContext) SetStatus(status string) {
	s.setStatus(status, "")
}

// AddAttribute adds a string attribute to the span.
func (s *OTelSpanContext) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

func (s *OTelSpanContext) setStatus(status, reason string) {
	switch status {
	case circulation.StatusSuccess:
		s.span.SetStatus(codes.Ok, "")
	case circulation.StatusError:
		if reason == "" {
			reason = "operation failed"
		}
		s.span.SetStatus(codes.Error, reason)
	default:
		s.span.SetAttributes(attribute.String("status", status))
	}
}

var (
	_ circulation.TracingCollector = (*TracingCollector)(nil)
	_ circulation.SpanContext      = (*OTelSpanContext)(nil)
)
