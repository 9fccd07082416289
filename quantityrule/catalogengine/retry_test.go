package catalogengine

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/minquantity-rule/quantityrule"
	"github.com/AntonStoeckl/minquantity-rule/testutil/helper"
)

func sqliteUniqueViolation(t *testing.T) error {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(createArticleTableSQL)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO Artigo (Artigo) VALUES ('A100')")
	require.NoError(t, err)

	_, err = db.Exec("INSERT INTO Artigo (Artigo) VALUES ('A100')")
	require.Error(t, err)

	return err
}

func Test_isWriteConflict(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "pgx unique violation", err: &pgconn.PgError{Code: "23505"}, expected: true},
		{name: "pgx other error", err: &pgconn.PgError{Code: "42P01"}, expected: false},
		{name: "lib/pq unique violation", err: &pq.Error{Code: "23505"}, expected: true},
		{name: "lib/pq other error", err: &pq.Error{Code: "40001"}, expected: false},
		{name: "joined unique violation", err: errors.Join(quantityrule.ErrWritingCatalogFailed, &pgconn.PgError{Code: "23505"}), expected: true},
		{name: "plain error", err: errors.New("connection reset"), expected: false},
		{name: "sqlite primary key violation", err: sqliteUniqueViolation(t), expected: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, isWriteConflict(tc.err))
		})
	}
}

func Test_retryOnWriteConflict_ShouldRetryConflictsUntilSuccess(t *testing.T) {
	// arrange
	metrics := helper.NewMetricsCollectorSpy()
	c := Catalog{
		writeRetry:       writeRetry{maxAttempts: 3, baseDelay: time.Millisecond},
		metricsCollector: metrics,
	}
	calls := 0

	// act
	err := c.retryOnWriteConflict(context.Background(), operationSet, func(context.Context) error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: pgUniqueViolation}
		}

		return nil
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, metrics.HasCounterRecord(metricWriteRetries, labelAttempt, "1"))
	assert.True(t, metrics.HasCounterRecord(metricWriteRetries, labelAttempt, "2"))
}

func Test_retryOnWriteConflict_ShouldGiveUpAfterMaxAttempts(t *testing.T) {
	// arrange
	c := Catalog{writeRetry: writeRetry{maxAttempts: 2, baseDelay: 0}}
	calls := 0

	// act
	err := c.retryOnWriteConflict(context.Background(), operationSet, func(context.Context) error {
		calls++
		return &pq.Error{Code: pgUniqueViolation}
	})

	// assert
	assert.True(t, isWriteConflict(err))
	assert.Equal(t, 2, calls)
}

func Test_retryOnWriteConflict_ShouldFailFastOnOtherErrors(t *testing.T) {
	// arrange
	c := Catalog{writeRetry: defaultWriteRetry()}
	calls := 0
	boom := errors.New("boom")

	// act
	err := c.retryOnWriteConflict(context.Background(), operationSet, func(context.Context) error {
		calls++
		return boom
	})

	// assert
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func Test_retryOnWriteConflict_ShouldStopWhenTheContextIsDone(t *testing.T) {
	// arrange
	c := Catalog{writeRetry: writeRetry{maxAttempts: 5, baseDelay: time.Hour}}
	ctx, cancel := context.WithCancel(context.Background())

	// act
	err := c.retryOnWriteConflict(ctx, operationSet, func(context.Context) error {
		cancel()
		return &pgconn.PgError{Code: pgUniqueViolation}
	})

	// assert
	assert.ErrorIs(t, err, context.Canceled)
}
