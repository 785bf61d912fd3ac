package circulation

// Option defines a functional option for configuring the Registry.
type Option func(*Registry) error

// WithClock sets the source of "now". Defaults to SystemClock.
func WithClock(clock Clock) Option {
	return func(r *Registry) error {
		if clock == nil {
			return ErrNilClock
		}

		r.clock = clock

		return nil
	}
}

// WithLogger sets the logger for the Registry.
// The logger will receive messages at different levels:
//
// Debug level: operation starts
// Info level: completed operations and broadcast notifications
// Warn level: rejected requests and journal write failures
// Error level: unexpected failures.
func WithLogger(logger Logger) Option {
	return func(r *Registry) error {
		r.observer.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Registry.
// It takes precedence over the logger set with WithLogger.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(r *Registry) error {
		r.observer.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Registry.
func WithMetrics(collector MetricsCollector) Option {
	return func(r *Registry) error {
		r.observer.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Registry.
func WithTracing(collector TracingCollector) Option {
	return func(r *Registry) error {
		r.observer.tracingCollector = collector
		return nil
	}
}

// WithJournal sets the audit sink that receives the Registry's domain events.
func WithJournal(journal Journal) Option {
	return func(r *Registry) error {
		if journal == nil {
			return ErrNilJournal
		}

		r.journal = journal

		return nil
	}
}

// WithMessageSink sets where registered patrons forward the notifications they receive.
func WithMessageSink(sink MessageSink) Option {
	return func(r *Registry) error {
		if sink == nil {
			return ErrNilMessageSink
		}

		r.sink = sink

		return nil
	}
}
