package catalogengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/minquantity-rule/quantityrule"
	"github.com/AntonStoeckl/minquantity-rule/quantityrule/catalogengine/internal/adapters"
)

const (
	// DialectPostgres renders maintenance statements for PostgreSQL.
	DialectPostgres = "postgres"
	// DialectSQLite renders maintenance statements for SQLite.
	DialectSQLite = "sqlite3"

	logMsgDBQueryFailed   = "catalog query execution failed"
	logMsgDBExecFailed    = "catalog statement execution failed"
	logMsgCloseRowsFailed = "failed to close database rows"
	logMsgScanRowFailed   = "failed to scan database row"
	logMsgBuildSQLFailed  = "failed to build catalog statement"
	logMsgSQLExecuted     = "executed sql for: "
	logMsgOperation       = "catalog operation: "
	logAttrError          = "error"
	logAttrQuery          = "query"
	logAttrArticle        = "article"
	logAttrMinimum        = "min_quantity"
	logAttrRowCount       = "row_count"
	logAttrDurationMS     = "duration_ms"
)

// Catalog is the article catalog holding the minimum-quantity rule values.
// It is safe for concurrent use as long as the underlying connection is.
type Catalog struct {
	db               adapters.DBAdapter
	dialect          string
	writeRetry       writeRetry
	logger           quantityrule.Logger
	contextualLogger quantityrule.ContextualLogger
	metricsCollector quantityrule.MetricsCollector
	tracingCollector quantityrule.TracingCollector
}

// NewCatalogFromPGXPool creates a new Catalog using a pgx Pool with optional configuration.
func NewCatalogFromPGXPool(db *pgxpool.Pool, options ...Option) (Catalog, error) {
	if db == nil {
		return Catalog{}, quantityrule.ErrNilDatabaseConnection
	}

	return newCatalog(adapters.NewPGXAdapter(db), options...)
}

// NewCatalogFromSQLDB creates a new Catalog using a sql.DB with optional configuration.
func NewCatalogFromSQLDB(db *sql.DB, options ...Option) (Catalog, error) {
	if db == nil {
		return Catalog{}, quantityrule.ErrNilDatabaseConnection
	}

	return newCatalog(adapters.NewSQLAdapter(db), options...)
}

// NewCatalogFromSQLX creates a new Catalog using a sqlx.DB with optional configuration.
func NewCatalogFromSQLX(db *sqlx.DB, options ...Option) (Catalog, error) {
	if db == nil {
		return Catalog{}, quantityrule.ErrNilDatabaseConnection
	}

	return newCatalog(adapters.NewSQLXAdapter(db), options...)
}

func newCatalog(db adapters.DBAdapter, options ...Option) (Catalog, error) {
	c := Catalog{
		db:         db,
		dialect:    DialectPostgres,
		writeRetry: defaultWriteRetry(),
	}

	for _, option := range options {
		if err := option(&c); err != nil {
			return Catalog{}, err
		}
	}

	return c, nil
}

// Dialect returns the SQL dialect of the maintenance statements.
func (c Catalog) Dialect() string {
	return c.dialect
}

// Query runs a raw query and returns its first row. It implements quantityrule.QueryCapability.
// A query without rows yields an empty result set, not an error.
func (c Catalog) Query(ctx context.Context, query string) (quantityrule.ResultSet, error) {
	ctx, span := c.startSpan(ctx, operationLookup)

	start := time.Now()
	rows, queryErr := c.db.Query(ctx, query)
	duration := time.Since(start)
	c.logQueryWithDuration(ctx, query, operationLookup, duration)

	if queryErr != nil {
		c.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, query)
		c.recordError(ctx, operationLookup, errorTypeQuery)
		c.finishSpan(span, statusError, errorTypeQuery, duration)

		return nil, errors.Join(quantityrule.ErrQueryingCatalogFailed, queryErr)
	}
	defer c.closeRows(ctx, rows)

	result, scanErr := c.firstRow(ctx, rows)
	if scanErr != nil {
		c.recordError(ctx, operationLookup, errorTypeScan)
		c.finishSpan(span, statusError, errorTypeScan, time.Since(start))

		return nil, scanErr
	}

	c.recordDuration(ctx, operationLookup, statusSuccess, time.Since(start))
	c.finishSpan(span, statusSuccess, "", time.Since(start))

	return result, nil
}

// firstRow scans the first row of rows into a result set.
func (c Catalog) firstRow(ctx context.Context, rows adapters.DBRows) (resultSet, error) {
	columns, columnsErr := rows.Columns()
	if columnsErr != nil {
		c.logError(ctx, logMsgScanRowFailed, columnsErr)
		return resultSet{}, errors.Join(quantityrule.ErrScanningDBRowFailed, columnsErr)
	}

	if !rows.Next() {
		if rowsErr := rows.Err(); rowsErr != nil {
			c.logError(ctx, logMsgScanRowFailed, rowsErr)
			return resultSet{}, errors.Join(quantityrule.ErrQueryingCatalogFailed, rowsErr)
		}

		return newEmptyResultSet(), nil
	}

	values := make([]any, len(columns))
	destinations := make([]any, len(columns))
	for i := range values {
		destinations[i] = &values[i]
	}

	if scanErr := rows.Scan(destinations...); scanErr != nil {
		c.logError(ctx, logMsgScanRowFailed, scanErr)
		return resultSet{}, errors.Join(quantityrule.ErrScanningDBRowFailed, scanErr)
	}

	return newResultSet(columns, values), nil
}

// closeRows safely closes database rows and logs any errors.
func (c Catalog) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		c.logWarn(ctx, logMsgCloseRowsFailed, closeErr)
	}
}

var _ quantityrule.QueryCapability = Catalog{}
