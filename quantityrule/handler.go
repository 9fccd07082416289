package quantityrule

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	logMsgQueryFailed          = "minimum quantity lookup failed"
	logMsgResultSetFailed      = "reading minimum quantity from result set failed"
	logMsgThresholdUnavailable = "minimum quantity not available"
	logMsgThresholdResolved    = "minimum quantity resolved"
	logMsgLineUnavailable      = "sales line not available"
	logMsgQuantityReadFailed   = "reading line quantity failed, assuming zero"
	logMsgQuantityKept         = "existing line quantity kept"
	logMsgQuantityOverwritten  = "line quantity overwritten"
	logMsgAssignmentFailed     = "assigning line quantity failed"
	logMsgHandlerPanicked      = "article identified handler recovered from panic"
	logAttrError               = "error"
	logAttrArticle             = "article"
	logAttrLineIndex           = "line_index"
	logAttrCorrelationID       = "correlation_id"
	logAttrThreshold           = "threshold"
	logAttrRawValue            = "raw_value"
	logAttrQuantityBefore      = "quantity_before"
	logAttrForceAlways         = "force_always"
)

// Outcome tells how an invocation of the handler ended. Hosts may ignore it.
type Outcome string

const (
	OutcomeBlankArticle         Outcome = "blank_article"
	OutcomeNegativeLineIndex    Outcome = "negative_line_index"
	OutcomeNoThreshold          Outcome = "no_threshold"
	OutcomeNonPositiveThreshold Outcome = "non_positive_threshold"
	OutcomeNoLine               Outcome = "no_line"
	OutcomeQuantityKept         Outcome = "quantity_kept"
	OutcomeQuantityOverwritten  Outcome = "quantity_overwritten"
	OutcomeAssignmentFailed     Outcome = "assignment_failed"
	OutcomeRecoveredPanic       Outcome = "recovered_panic"
)

// Overwritten reports whether the line's quantity was written.
func (o Outcome) Overwritten() bool {
	return o == OutcomeQuantityOverwritten
}

// Handler applies the minimum-quantity rule to article-identified events.
// It keeps no state between invocations and is safe for concurrent use.
type Handler struct {
	editor           Editor
	query            QueryCapability
	policy           Policy
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

// NewHandler creates a Handler bound to an editor and the host's query capability.
func NewHandler(editor Editor, query QueryCapability, policy Policy, options ...Option) (*Handler, error) {
	if editor == nil {
		return nil, ErrNilEditor
	}

	if query == nil {
		return nil, ErrNilQueryCapability
	}

	normalized, err := policy.normalized()
	if err != nil {
		return nil, err
	}

	h := &Handler{
		editor: editor,
		query:  query,
		policy: normalized,
	}

	for _, option := range options {
		if err := option(h); err != nil {
			return nil, err
		}
	}

	return h, nil
}

// Policy returns the effective policy, with defaults applied.
func (h *Handler) Policy() Policy {
	return h.policy
}

// ArticleIdentified applies the rule to the line the event points at.
//
// It never fails towards the caller. Misses end the invocation without touching the line;
// a failed assignment is logged. Panics raised by the host or by diagnostics are recovered.
// The event's Cancel flag is left untouched.
func (h *Handler) ArticleIdentified(ctx context.Context, event ArticleIdentifiedEvent) (outcome Outcome) {
	start := time.Now()
	tracing := &articleTracingObserver{h: h}

	defer func() {
		if r := recover(); r != nil {
			outcome = OutcomeRecoveredPanic
			h.logError(ctx, logMsgHandlerPanicked, fmt.Errorf("%v", r), h.eventAttrs(event)...)
		}

		duration := time.Since(start)
		tracing.finish(outcome, duration)
		h.recordOutcome(ctx, outcome, duration)
	}()

	event.Metadata = event.Metadata.withCorrelationID()
	tracing, ctx = h.startTracing(ctx, event)

	return h.evaluate(ctx, event)
}

func (h *Handler) evaluate(ctx context.Context, event ArticleIdentifiedEvent) Outcome {
	if strings.TrimSpace(event.Article) == "" {
		return OutcomeBlankArticle
	}

	if event.LineIndex < 0 {
		return OutcomeNegativeLineIndex
	}

	threshold, found := h.resolveThreshold(ctx, event)
	if !found {
		return OutcomeNoThreshold
	}

	if threshold <= 0 {
		return OutcomeNonPositiveThreshold
	}

	line, found := h.resolveLine(ctx, event)
	if !found {
		return OutcomeNoLine
	}

	quantityBefore := h.readQuantity(ctx, line, event)

	if !h.policy.ShouldOverwrite(quantityBefore) {
		h.logDebug(ctx, logMsgQuantityKept,
			append(h.eventAttrs(event), logAttrQuantityBefore, quantityBefore, logAttrThreshold, threshold)...)

		return OutcomeQuantityKept
	}

	if err := guardHostCall(func() error { return line.SetQuantity(threshold) }); err != nil {
		h.logError(ctx, logMsgAssignmentFailed, err,
			append(h.eventAttrs(event), logAttrThreshold, threshold)...)

		return OutcomeAssignmentFailed
	}

	h.logInfo(ctx, logMsgQuantityOverwritten,
		append(h.eventAttrs(event),
			logAttrQuantityBefore, quantityBefore,
			logAttrThreshold, threshold,
			logAttrForceAlways, h.policy.ForceAlways)...)

	h.recordThresholdApplied(ctx, threshold)

	return OutcomeQuantityOverwritten
}

// resolveThreshold looks up and parses the article's rule value; false is a soft miss.
func (h *Handler) resolveThreshold(ctx context.Context, event ArticleIdentifiedEvent) (float64, bool) {
	var resultSet ResultSet

	queryErr := guardHostCall(func() error {
		var err error
		resultSet, err = h.query.Query(ctx, LookupQuery(event.Article))
		return err
	})
	if queryErr != nil {
		h.logWarn(ctx, logMsgQueryFailed, queryErr, h.eventAttrs(event)...)
		return 0, false
	}

	if resultSet == nil {
		h.logDebug(ctx, logMsgThresholdUnavailable, h.eventAttrs(event)...)
		return 0, false
	}

	var raw any
	empty := false

	readErr := guardHostCall(func() error {
		if resultSet.IsEmpty() {
			empty = true
			return nil
		}

		var err error
		raw, err = resultSet.Value(ColumnMinimumQuantity)
		return err
	})
	if readErr != nil {
		h.logWarn(ctx, logMsgResultSetFailed, readErr, h.eventAttrs(event)...)
		return 0, false
	}

	if empty {
		h.logDebug(ctx, logMsgThresholdUnavailable, h.eventAttrs(event)...)
		return 0, false
	}

	threshold, ok := ParseThreshold(raw, h.policy.FallbackFormat)
	if !ok {
		h.logDebug(ctx, logMsgThresholdUnavailable,
			append(h.eventAttrs(event), logAttrRawValue, fmt.Sprintf("%v", raw))...)

		return 0, false
	}

	h.logDebug(ctx, logMsgThresholdResolved, append(h.eventAttrs(event), logAttrThreshold, threshold)...)

	return threshold, true
}

// resolveLine fetches the editable line; false when the host can't provide it.
func (h *Handler) resolveLine(ctx context.Context, event ArticleIdentifiedEvent) (Line, bool) {
	var line Line

	err := guardHostCall(func() error {
		document := h.editor.SalesDocument()
		if document == nil {
			return nil
		}

		lines := document.Lines()
		if lines == nil {
			return nil
		}

		var lineErr error
		line, lineErr = lines.EditableLine(event.LineIndex)
		return lineErr
	})

	if err != nil {
		h.logWarn(ctx, logMsgLineUnavailable, err, h.eventAttrs(event)...)
		return nil, false
	}

	if line == nil {
		h.logDebug(ctx, logMsgLineUnavailable, h.eventAttrs(event)...)
		return nil, false
	}

	return line, true
}

// readQuantity returns the line's quantity, or zero when it can't be read.
func (h *Handler) readQuantity(ctx context.Context, line Line, event ArticleIdentifiedEvent) float64 {
	var quantity float64

	err := guardHostCall(func() error {
		var readErr error
		quantity, readErr = line.Quantity()
		return readErr
	})
	if err != nil {
		h.logDebug(ctx, logMsgQuantityReadFailed,
			append(h.eventAttrs(event), logAttrError, errorText(err))...)

		return 0
	}

	return quantity
}

func (h *Handler) eventAttrs(event ArticleIdentifiedEvent) []any {
	return []any{
		logAttrArticle, event.Article,
		logAttrLineIndex, event.LineIndex,
		logAttrCorrelationID, event.Metadata.CorrelationID,
	}
}

// errorText flattens the multi-line output of errors.Join for log attributes.
func errorText(err error) string {
	return strings.ReplaceAll(err.Error(), "\n", ": ")
}
