package catalogengine

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/AntonStoeckl/minquantity-rule/quantityrule"
)

const (
	defaultMaxWriteAttempts = 3
	defaultWriteBaseDelay   = 10 * time.Millisecond
	defaultJitterFactor     = 0.3
	pgUniqueViolation       = "23505"
	metricWriteRetries      = "minqty_catalog_write_retries_total"
	labelAttempt            = "attempt_number"
	logMsgWriteConflict     = "concurrent catalog write detected, retrying"
	logAttrAttempt          = "attempt"
)

// writeRetry configures how often an upsert is repeated after losing an insert race.
type writeRetry struct {
	maxAttempts int
	baseDelay   time.Duration
}

func defaultWriteRetry() writeRetry {
	return writeRetry{maxAttempts: defaultMaxWriteAttempts, baseDelay: defaultWriteBaseDelay}
}

// retryOnWriteConflict runs fn until it succeeds, fails with a non-conflict error,
// or maxAttempts is reached. Delays grow as baseDelay * 2^(attempt-1) plus jitter.
func (c Catalog) retryOnWriteConflict(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt < c.writeRetry.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.writeRetry.baseDelay * time.Duration(1<<(attempt-1))
			jitter := rand.Float64() * float64(delay) * defaultJitterFactor //nolint:gosec // jitter only

			select {
			case <-time.After(delay + time.Duration(jitter)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil || !isWriteConflict(lastErr) {
			return lastErr
		}

		if attempt < c.writeRetry.maxAttempts-1 {
			c.logWarn(ctx, logMsgWriteConflict, lastErr, logAttrAttempt, attempt+1)
			c.recordWriteRetry(ctx, operation, attempt+1)
		}
	}

	return lastErr
}

func (c Catalog) recordWriteRetry(ctx context.Context, operation string, attempt int) {
	if c.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		labelOperation: operation,
		labelAttempt:   strconv.Itoa(attempt),
	}

	if contextualCollector, ok := c.metricsCollector.(quantityrule.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metricWriteRetries, labels)
		return
	}

	c.metricsCollector.IncrementCounter(metricWriteRetries, labels)
}

// isWriteConflict reports whether err is a unique or primary key violation from any supported driver.
func isWriteConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed")
		default:
			return false
		}
	}

	return false
}
