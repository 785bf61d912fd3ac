// Package testdoubles provides spies for the circulation package's collaborator interfaces.
//
//   - MetricsCollectorSpy: captures metrics recording calls
//   - TracingCollectorSpy: captures spans with their start and finish attributes
//   - ContextualLoggerSpy: captures context-aware log calls
//   - LoggerSpy: captures plain log calls
//   - SubscriberSpy: captures broadcast messages
//   - JournalSpy: captures domain events and can be told to fail
//
// All spies are safe for concurrent use.
package testdoubles
