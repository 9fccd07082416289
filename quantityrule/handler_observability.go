package quantityrule

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"
)

const (
	metricEvaluations      = "minqty_rule_evaluations_total"
	metricDuration         = "minqty_rule_duration_seconds"
	metricThresholdApplied = "minqty_rule_threshold_applied"
	spanNameArticle        = "minqty.article_identified"
	spanAttrArticle        = "minqty.article"
	spanAttrLineIndex      = "minqty.line_index"
	spanAttrCorrelationID  = "minqty.correlation_id"
	spanAttrOutcome        = "minqty.outcome"
	spanAttrDurationMS     = "minqty.duration_ms"
	labelOutcome           = "outcome"
	statusSuccess          = "success"
	statusError            = "error"
)

// guardDiagnostics runs a logging, metrics or tracing call and drops any panic it raises.
func guardDiagnostics(fn func()) {
	defer func() {
		_ = recover()
	}()

	fn()
}

func (h *Handler) logDebug(ctx context.Context, msg string, args ...any) {
	guardDiagnostics(func() {
		if h.logger != nil {
			h.logger.Debug(msg, args...)
		}

		if h.contextualLogger != nil {
			h.contextualLogger.DebugContext(ctx, msg, args...)
		}
	})
}

func (h *Handler) logInfo(ctx context.Context, msg string, args ...any) {
	guardDiagnostics(func() {
		if h.logger != nil {
			h.logger.Info(msg, args...)
		}

		if h.contextualLogger != nil {
			h.contextualLogger.InfoContext(ctx, msg, args...)
		}
	})
}

// logWarn is used for misses that were caused by a failing host call.
func (h *Handler) logWarn(ctx context.Context, msg string, err error, args ...any) {
	guardDiagnostics(func() {
		allArgs := append([]any{logAttrError, errorText(err)}, args...)

		if h.logger != nil {
			h.logger.Warn(msg, allArgs...)
		}

		if h.contextualLogger != nil {
			h.contextualLogger.WarnContext(ctx, msg, allArgs...)
		}
	})
}

func (h *Handler) logError(ctx context.Context, msg string, err error, args ...any) {
	guardDiagnostics(func() {
		allArgs := append([]any{logAttrError, errorText(err)}, args...)

		if h.logger != nil {
			h.logger.Error(msg, allArgs...)
		}

		if h.contextualLogger != nil {
			h.contextualLogger.ErrorContext(ctx, msg, allArgs...)
		}
	})
}

// recordOutcome records the evaluation counter and duration if a metrics collector is configured.
func (h *Handler) recordOutcome(ctx context.Context, outcome Outcome, duration time.Duration) {
	if h.metricsCollector == nil {
		return
	}

	labels := map[string]string{labelOutcome: string(outcome)}

	guardDiagnostics(func() {
		if contextualCollector, ok := h.metricsCollector.(ContextualMetricsCollector); ok {
			contextualCollector.IncrementCounterContext(ctx, metricEvaluations, labels)
			contextualCollector.RecordDurationContext(ctx, metricDuration, duration, labels)
			return
		}

		h.metricsCollector.IncrementCounter(metricEvaluations, labels)
		h.metricsCollector.RecordDuration(metricDuration, duration, labels)
	})
}

// recordThresholdApplied records the value written to a line.
func (h *Handler) recordThresholdApplied(ctx context.Context, threshold float64) {
	if h.metricsCollector == nil {
		return
	}

	guardDiagnostics(func() {
		if contextualCollector, ok := h.metricsCollector.(ContextualMetricsCollector); ok {
			contextualCollector.RecordValueContext(ctx, metricThresholdApplied, threshold, nil)
			return
		}

		h.metricsCollector.RecordValue(metricThresholdApplied, threshold, nil)
	})
}

// articleTracingObserver encapsulates the span lifecycle of one invocation.
type articleTracingObserver struct {
	h    *Handler
	span SpanContext
}

func (h *Handler) startTracing(ctx context.Context, event ArticleIdentifiedEvent) (*articleTracingObserver, context.Context) {
	observer := &articleTracingObserver{h: h}

	if h.tracingCollector == nil {
		return observer, ctx
	}

	spanCtx := ctx

	guardDiagnostics(func() {
		startedCtx, span := h.tracingCollector.StartSpan(ctx, spanNameArticle, map[string]string{
			spanAttrArticle:       event.Article,
			spanAttrLineIndex:     strconv.Itoa(event.LineIndex),
			spanAttrCorrelationID: event.Metadata.CorrelationID,
		})
		if startedCtx != nil {
			spanCtx = startedCtx
		}
		observer.span = span
	})

	return observer, spanCtx
}

func (o *articleTracingObserver) finish(outcome Outcome, duration time.Duration) {
	if o.span == nil {
		return
	}

	status := statusSuccess
	if outcome == OutcomeAssignmentFailed || outcome == OutcomeRecoveredPanic {
		status = statusError
	}

	guardDiagnostics(func() {
		o.span.SetStatus(status)
		o.span.AddAttribute(spanAttrDurationMS, fmt.Sprintf("%.3f", toMilliseconds(duration)))

		o.h.tracingCollector.FinishSpan(o.span, status, map[string]string{spanAttrOutcome: string(outcome)})
	})
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
