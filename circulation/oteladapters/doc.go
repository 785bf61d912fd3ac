// Package oteladapters implements the circulation observability interfaces with OpenTelemetry.
//
// Wire them into a Registry with the circulation options:
//
//	registry, err := circulation.NewRegistry(
//		circulation.WithMetrics(oteladapters.NewMetricsCollector(meterProvider.Meter("librarian"))),
//		circulation.WithTracing(oteladapters.NewTracingCollector(tracerProvider.Tracer("librarian"))),
//		circulation.WithContextualLogger(oteladapters.NewSlogBridgeLogger("librarian")),
//	)
//
// Instruments are created lazily on first use, so any metric name works; the names the
// Registry emits get a description and unit.
package oteladapters
