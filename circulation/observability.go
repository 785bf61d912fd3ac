package circulation

import (
	"context"
	"fmt"
	"time"
)

// Logger interface for operational logging, satisfied by *slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ContextualLogger interface for context-aware logging with automatic trace correlation.
// When both loggers are configured, the contextual logger wins.
type ContextualLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// MetricsCollector interface for collecting Registry performance and business metrics.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
	RecordValue(metric string, value float64, labels map[string]string)
}

// ContextualMetricsCollector extends MetricsCollector with context-aware methods for trace correlation.
// The Registry uses them when available and falls back to MetricsCollector otherwise.
type ContextualMetricsCollector interface {
	MetricsCollector
	RecordDurationContext(ctx context.Context, metric string, duration time.Duration, labels map[string]string)
	IncrementCounterContext(ctx context.Context, metric string, labels map[string]string)
	RecordValueContext(ctx context.Context, metric string, value float64, labels map[string]string)
}

// SpanContext represents an active tracing span that can be finished and updated with attributes.
type SpanContext interface {
	SetStatus(status string)
	AddAttribute(key, value string)
}

// TracingCollector interface for collecting tracing information from Registry operations.
type TracingCollector interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext)
	FinishSpan(spanCtx SpanContext, status string, attrs map[string]string)
}

// Journal receives the Registry's domain events after each state change.
// It is an audit sink: the Registry never reads from it, and a failing Journal
// does not fail or roll back the operation that produced the event.
type Journal interface {
	Record(ctx context.Context, event DomainEvent) error
}

const (
	// OperationDurationMetric tracks Registry operation duration.
	OperationDurationMetric = "registry_operation_duration_seconds"

	// OperationCallsMetric counts Registry operations by operation and status.
	OperationCallsMetric = "registry_operation_calls_total"

	// BusinessFailuresMetric counts rejected requests by operation and reason.
	BusinessFailuresMetric = "registry_business_failures_total"

	// NotificationsMetric counts broadcast messages by kind.
	NotificationsMetric = "registry_notifications_total"

	// OverdueLoansMetric records the number of overdue loans found by the last overdue sweep.
	OverdueLoansMetric = "registry_overdue_loans"

	// JournalWriteErrorsMetric counts domain events the Journal failed to record.
	JournalWriteErrorsMetric = "journal_write_errors_total"

	// StatusSuccess indicates a completed operation.
	StatusSuccess = "success"

	// StatusError indicates a rejected or failed operation.
	StatusError = "error"

	operationAddPatron     = "add_patron"
	operationRemovePatron  = "remove_patron"
	operationAddBook       = "add_book"
	operationRemoveBook    = "remove_book"
	operationBorrow        = "borrow"
	operationReturn        = "return"
	operationNotifyOverdue = "notify_overdue"

	notificationBorrowed = "borrowed"
	notificationReturned = "returned"
	notificationOverdue  = "overdue"

	spanNamePrefix = "registry."

	logMsgOperationStarted   = "registry operation started"
	logMsgOperationCompleted = "registry operation completed"
	logMsgOperationRejected  = "registry operation rejected"
	logMsgNotificationSent   = "notification broadcast"
	logMsgJournalWriteFailed = "journal write failed"

	logAttrOperation   = "operation"
	logAttrStatus      = "status"
	logAttrReason      = "reason"
	logAttrError       = "error"
	logAttrDurationMS  = "duration_ms"
	logAttrPatronID    = "patron_id"
	logAttrISBN        = "isbn"
	logAttrTransaction = "transaction_id"
	logAttrRecipients  = "recipients"
	logAttrEventType   = "event_type"
	logAttrKind        = "kind"
	logAttrAlerts      = "alerts"
)

// observer bundles the optional observability collaborators.
// All methods are no-ops for collaborators that are not configured.
type observer struct {
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

func (o observer) logDebug(ctx context.Context, msg string, args ...any) {
	if o.contextualLogger != nil {
		o.contextualLogger.DebugContext(ctx, msg, args...)
	} else if o.logger != nil {
		o.logger.Debug(msg, args...)
	}
}

func (o observer) logInfo(ctx context.Context, msg string, args ...any) {
	if o.contextualLogger != nil {
		o.contextualLogger.InfoContext(ctx, msg, args...)
	} else if o.logger != nil {
		o.logger.Info(msg, args...)
	}
}

func (o observer) logWarn(ctx context.Context, msg string, args ...any) {
	if o.contextualLogger != nil {
		o.contextualLogger.WarnContext(ctx, msg, args...)
	} else if o.logger != nil {
		o.logger.Warn(msg, args...)
	}
}

func (o observer) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if o.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := o.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
	} else {
		o.metricsCollector.IncrementCounter(metric, labels)
	}
}

func (o observer) recordDuration(ctx context.Context, metric string, duration time.Duration, labels map[string]string) {
	if o.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := o.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metric, duration, labels)
	} else {
		o.metricsCollector.RecordDuration(metric, duration, labels)
	}
}

func (o observer) recordValue(ctx context.Context, metric string, value float64, labels map[string]string) {
	if o.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := o.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metric, value, labels)
	} else {
		o.metricsCollector.RecordValue(metric, value, labels)
	}
}

// startOperation opens a span and logs the start of an operation.
func (o observer) startOperation(ctx context.Context, operation string, args ...any) (context.Context, SpanContext) {
	var span SpanContext

	if o.tracingCollector != nil {
		ctx, span = o.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, map[string]string{logAttrOperation: operation})
	}

	o.logDebug(ctx, logMsgOperationStarted, append([]any{logAttrOperation, operation}, args...)...)

	return ctx, span
}

// finishOperation records metrics, closes the span and logs the outcome of an operation.
func (o observer) finishOperation(
	ctx context.Context,
	operation string,
	span SpanContext,
	duration time.Duration,
	err error,
	args ...any,
) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}

	labels := map[string]string{logAttrOperation: operation, logAttrStatus: status}
	o.recordDuration(ctx, OperationDurationMetric, duration, labels)
	o.incrementCounter(ctx, OperationCallsMetric, labels)

	spanAttrs := map[string]string{
		logAttrStatus:     status,
		logAttrDurationMS: fmt.Sprintf("%.2f", toMilliseconds(duration)),
	}

	logArgs := append([]any{logAttrOperation, operation, logAttrDurationMS, toMilliseconds(duration)}, args...)

	// Every operation error is one of the business sentinels, so failures are rejections.
	if err == nil {
		o.logInfo(ctx, logMsgOperationCompleted, logArgs...)
	} else {
		reason := FailureReason(err)
		spanAttrs[logAttrReason] = reason
		o.incrementCounter(ctx, BusinessFailuresMetric, map[string]string{logAttrOperation: operation, logAttrReason: reason})
		o.logWarn(ctx, logMsgOperationRejected, append(logArgs, logAttrReason, reason, logAttrError, err.Error())...)
	}

	if o.tracingCollector != nil && span != nil {
		o.tracingCollector.FinishSpan(span, status, spanAttrs)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds.
func toMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
