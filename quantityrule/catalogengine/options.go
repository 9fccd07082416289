package catalogengine

import (
	"time"

	"github.com/AntonStoeckl/minquantity-rule/quantityrule"
)

// Option defines a functional option for configuring a Catalog.
type Option func(*Catalog) error

// WithDialect sets the SQL dialect used for the maintenance statements.
func WithDialect(dialect string) Option {
	return func(c *Catalog) error {
		switch dialect {
		case DialectPostgres, DialectSQLite:
			c.dialect = dialect
			return nil

		default:
			return quantityrule.ErrUnsupportedDialect
		}
	}
}

// WithLogger sets the logger for the Catalog.
//
// Debug level: SQL statements with execution timing
// Info level: maintenance changes
// Warn level: failures closing rows
// Error level: failed queries and statements.
func WithLogger(logger quantityrule.Logger) Option {
	return func(c *Catalog) error {
		c.logger = logger
		return nil
	}
}

// WithContextualLogger sets the context-aware logger for the Catalog.
func WithContextualLogger(logger quantityrule.ContextualLogger) Option {
	return func(c *Catalog) error {
		c.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Catalog.
// It receives query durations and database errors per operation.
func WithMetrics(collector quantityrule.MetricsCollector) Option {
	return func(c *Catalog) error {
		c.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Catalog.
func WithTracing(collector quantityrule.TracingCollector) Option {
	return func(c *Catalog) error {
		c.tracingCollector = collector
		return nil
	}
}

// WithWriteRetries sets how often SetMinimumQuantity tries an upsert that lost an insert race
// to a concurrent writer, and the base delay of the exponential backoff between attempts.
// The default is 3 attempts starting at 10ms.
func WithWriteRetries(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Catalog) error {
		if maxAttempts <= 0 {
			return quantityrule.ErrInvalidMaxAttempts
		}

		if baseDelay < 0 {
			return quantityrule.ErrNegativeBaseDelay
		}

		c.writeRetry = writeRetry{maxAttempts: maxAttempts, baseDelay: baseDelay}

		return nil
	}
}
