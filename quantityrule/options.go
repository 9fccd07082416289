package quantityrule

// Option defines a functional option for configuring a Handler.
type Option func(*Handler) error

// WithLogger sets the diagnostic logger for the Handler.
//
// Debug level: resolved thresholds and decisions
// Info level: overwritten quantities
// Warn level: lookup and line misses caused by a failing host call
// Error level: failed quantity assignments.
func WithLogger(logger Logger) Option {
	return func(h *Handler) error {
		h.logger = logger
		return nil
	}
}

// WithContextualLogger sets the context-aware logger for the Handler.
// It receives the same messages as the Logger, with the invocation's context.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(h *Handler) error {
		h.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Handler.
func WithMetrics(collector MetricsCollector) Option {
	return func(h *Handler) error {
		h.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Handler.
func WithTracing(collector TracingCollector) Option {
	return func(h *Handler) error {
		h.tracingCollector = collector
		return nil
	}
}
