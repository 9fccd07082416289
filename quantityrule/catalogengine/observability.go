package catalogengine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/AntonStoeckl/minquantity-rule/quantityrule"
)

const (
	operationLookup       = "lookup"
	operationSet          = "set"
	operationClear        = "clear"
	operationList         = "list"
	operationEnsureSchema = "ensure_schema"
	errorTypeBuild        = "build"
	errorTypeQuery        = "query"
	errorTypeExec         = "exec"
	errorTypeScan         = "scan"
	metricQueryDuration   = "minqty_catalog_query_duration_seconds"
	metricErrors          = "minqty_catalog_errors_total"
	spanNamePrefix        = "minqty.catalog."
	spanAttrOperation     = "minqty.operation"
	spanAttrErrorType     = "minqty.error_type"
	spanAttrDurationMS    = "minqty.duration_ms"
	labelOperation        = "operation"
	labelStatus           = "status"
	labelErrorType        = "error_type"
	statusSuccess         = "success"
	statusError           = "error"
)

// logQueryWithDuration logs SQL statements with execution time at debug level.
func (c Catalog) logQueryWithDuration(ctx context.Context, sqlQuery, operation string, duration time.Duration) {
	args := []any{logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery}

	if c.logger != nil {
		c.logger.Debug(logMsgSQLExecuted+operation, args...)
	}

	if c.contextualLogger != nil {
		c.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+operation, args...)
	}
}

// logOperation logs maintenance changes at info level.
func (c Catalog) logOperation(ctx context.Context, operation string, args ...any) {
	if c.logger != nil {
		c.logger.Info(logMsgOperation+operation, args...)
	}

	if c.contextualLogger != nil {
		c.contextualLogger.InfoContext(ctx, logMsgOperation+operation, args...)
	}
}

func (c Catalog) logWarn(ctx context.Context, message string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if c.logger != nil {
		c.logger.Warn(message, allArgs...)
	}

	if c.contextualLogger != nil {
		c.contextualLogger.WarnContext(ctx, message, allArgs...)
	}
}

func (c Catalog) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if c.logger != nil {
		c.logger.Error(message, allArgs...)
	}

	if c.contextualLogger != nil {
		c.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

// recordError increments the error counter, preferring the context-aware method.
func (c Catalog) recordError(ctx context.Context, operation, errorType string) {
	if c.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		labelOperation: operation,
		labelStatus:    statusError,
		labelErrorType: errorType,
	}

	if contextualCollector, ok := c.metricsCollector.(quantityrule.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metricErrors, labels)
		return
	}

	c.metricsCollector.IncrementCounter(metricErrors, labels)
}

// recordDuration records the duration of a completed operation.
func (c Catalog) recordDuration(ctx context.Context, operation, status string, duration time.Duration) {
	if c.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		labelOperation: operation,
		labelStatus:    status,
	}

	if contextualCollector, ok := c.metricsCollector.(quantityrule.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricQueryDuration, duration, labels)
		return
	}

	c.metricsCollector.RecordDuration(metricQueryDuration, duration, labels)
}

// startSpan starts a tracing span if the tracing collector is configured.
func (c Catalog) startSpan(ctx context.Context, operation string) (context.Context, quantityrule.SpanContext) {
	if c.tracingCollector == nil {
		return ctx, nil
	}

	return c.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, map[string]string{
		spanAttrOperation: operation,
	})
}

// finishSpan finishes a tracing span; errorType is only recorded for failed operations.
func (c Catalog) finishSpan(span quantityrule.SpanContext, status, errorType string, duration time.Duration) {
	if c.tracingCollector == nil || span == nil {
		return
	}

	span.SetStatus(status)
	span.AddAttribute(spanAttrDurationMS, fmt.Sprintf("%.2f", float64(duration.Nanoseconds())/1e6))

	attrs := map[string]string{}
	if errorType != "" {
		span.AddAttribute(spanAttrErrorType, errorType)
		attrs[spanAttrErrorType] = errorType
	}

	c.tracingCollector.FinishSpan(span, status, attrs)
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
