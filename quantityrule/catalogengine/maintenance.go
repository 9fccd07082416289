package catalogengine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect registration
	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/minquantity-rule/quantityrule"
)

// Identifiers are lower case so that goqu's quoted names match the folded names of the
// unquoted lookup query on PostgreSQL.
const (
	tableArticle          = "artigo"
	colArticle            = "artigo"
	colMinimumQuantity    = "cdu_minmetrossugestaovenda"
	createArticleTableSQL = "CREATE TABLE IF NOT EXISTS Artigo (" +
		"Artigo VARCHAR(48) PRIMARY KEY, " +
		"CDU_MinMetrosSugestaoVenda VARCHAR(32))"
)

// MinimumQuantity is the stored rule value of one article.
type MinimumQuantity struct {
	Article  string
	RawValue string
}

// Threshold parses the stored value the same way the rule does.
func (m MinimumQuantity) Threshold(fallback quantityrule.NumberFormat) (float64, bool) {
	return quantityrule.ParseThreshold(m.RawValue, fallback)
}

// EnsureSchema creates the article table when it does not exist yet.
func (c Catalog) EnsureSchema(ctx context.Context) error {
	_, err := c.exec(ctx, operationEnsureSchema, createArticleTableSQL)
	return err
}

// SetMinimumQuantity stores the rule value of article, adding the article when it is unknown.
func (c Catalog) SetMinimumQuantity(ctx context.Context, article string, quantity decimal.Decimal) error {
	if strings.TrimSpace(article) == "" {
		return quantityrule.ErrEmptyArticleCode
	}

	if !quantity.IsPositive() {
		return quantityrule.ErrNonPositiveMinimumQuantity
	}

	value := quantity.String()

	err := c.retryOnWriteConflict(ctx, operationSet, func(ctx context.Context) error {
		return c.upsertMinimumQuantity(ctx, article, value)
	})
	if err != nil {
		return err
	}

	c.logOperation(ctx, operationSet, logAttrArticle, article, logAttrMinimum, value)

	return nil
}

// upsertMinimumQuantity updates the article and inserts it when no row was updated.
// A concurrent insert of the same article surfaces as a unique violation.
func (c Catalog) upsertMinimumQuantity(ctx context.Context, article, value string) error {
	updateSQL, _, buildErr := goqu.Dialect(c.dialect).
		Update(tableArticle).
		Set(goqu.Record{colMinimumQuantity: value}).
		Where(goqu.C(colArticle).Eq(article)).
		ToSQL()
	if buildErr != nil {
		return c.buildFailed(ctx, operationSet, buildErr)
	}

	rowsAffected, updateErr := c.exec(ctx, operationSet, updateSQL)
	if updateErr != nil {
		return updateErr
	}

	if rowsAffected == 0 {
		insertSQL, _, insertBuildErr := goqu.Dialect(c.dialect).
			Insert(tableArticle).
			Rows(goqu.Record{colArticle: article, colMinimumQuantity: value}).
			ToSQL()
		if insertBuildErr != nil {
			return c.buildFailed(ctx, operationSet, insertBuildErr)
		}

		if _, insertErr := c.exec(ctx, operationSet, insertSQL); insertErr != nil {
			return insertErr
		}
	}

	return nil
}

// ClearMinimumQuantity removes the rule value of article, keeping the article itself.
func (c Catalog) ClearMinimumQuantity(ctx context.Context, article string) error {
	if strings.TrimSpace(article) == "" {
		return quantityrule.ErrEmptyArticleCode
	}

	updateSQL, _, buildErr := goqu.Dialect(c.dialect).
		Update(tableArticle).
		Set(goqu.Record{colMinimumQuantity: nil}).
		Where(goqu.C(colArticle).Eq(article)).
		ToSQL()
	if buildErr != nil {
		return c.buildFailed(ctx, operationClear, buildErr)
	}

	rowsAffected, execErr := c.exec(ctx, operationClear, updateSQL)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", quantityrule.ErrArticleNotFound, article)
	}

	c.logOperation(ctx, operationClear, logAttrArticle, article)

	return nil
}

// MinimumQuantities lists all articles that have a rule value, ordered by article code.
func (c Catalog) MinimumQuantities(ctx context.Context) ([]MinimumQuantity, error) {
	selectSQL, _, buildErr := goqu.Dialect(c.dialect).
		From(tableArticle).
		Select(colArticle, colMinimumQuantity).
		Where(goqu.C(colMinimumQuantity).IsNotNull()).
		Order(goqu.C(colArticle).Asc()).
		ToSQL()
	if buildErr != nil {
		return nil, c.buildFailed(ctx, operationList, buildErr)
	}

	ctx, span := c.startSpan(ctx, operationList)

	start := time.Now()
	rows, queryErr := c.db.Query(ctx, selectSQL)
	c.logQueryWithDuration(ctx, selectSQL, operationList, time.Since(start))

	if queryErr != nil {
		c.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, selectSQL)
		c.recordError(ctx, operationList, errorTypeQuery)
		c.finishSpan(span, statusError, errorTypeQuery, time.Since(start))

		return nil, errors.Join(quantityrule.ErrQueryingCatalogFailed, queryErr)
	}
	defer c.closeRows(ctx, rows)

	quantities := make([]MinimumQuantity, 0)
	for rows.Next() {
		var article string
		var raw any

		if scanErr := rows.Scan(&article, &raw); scanErr != nil {
			c.logError(ctx, logMsgScanRowFailed, scanErr)
			c.recordError(ctx, operationList, errorTypeScan)
			c.finishSpan(span, statusError, errorTypeScan, time.Since(start))

			return nil, errors.Join(quantityrule.ErrScanningDBRowFailed, scanErr)
		}

		quantities = append(quantities, MinimumQuantity{Article: article, RawValue: rawText(raw)})
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		c.logError(ctx, logMsgDBQueryFailed, rowsErr, logAttrQuery, selectSQL)
		c.recordError(ctx, operationList, errorTypeQuery)
		c.finishSpan(span, statusError, errorTypeQuery, time.Since(start))

		return nil, errors.Join(quantityrule.ErrQueryingCatalogFailed, rowsErr)
	}

	c.recordDuration(ctx, operationList, statusSuccess, time.Since(start))
	c.finishSpan(span, statusSuccess, "", time.Since(start))
	c.logOperation(ctx, operationList, logAttrRowCount, len(quantities))

	return quantities, nil
}

// exec runs a maintenance statement and returns the number of affected rows.
func (c Catalog) exec(ctx context.Context, operation, statement string) (int64, error) {
	ctx, span := c.startSpan(ctx, operation)

	start := time.Now()
	result, execErr := c.db.Exec(ctx, statement)
	duration := time.Since(start)
	c.logQueryWithDuration(ctx, statement, operation, duration)

	if execErr != nil {
		c.logError(ctx, logMsgDBExecFailed, execErr, logAttrQuery, statement)
		c.recordError(ctx, operation, errorTypeExec)
		c.finishSpan(span, statusError, errorTypeExec, duration)

		return 0, errors.Join(quantityrule.ErrWritingCatalogFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		c.logError(ctx, logMsgDBExecFailed, rowsAffectedErr, logAttrQuery, statement)
		c.recordError(ctx, operation, errorTypeExec)
		c.finishSpan(span, statusError, errorTypeExec, duration)

		return 0, errors.Join(quantityrule.ErrWritingCatalogFailed, rowsAffectedErr)
	}

	c.recordDuration(ctx, operation, statusSuccess, duration)
	c.finishSpan(span, statusSuccess, "", duration)

	return rowsAffected, nil
}

func (c Catalog) buildFailed(ctx context.Context, operation string, err error) error {
	c.logError(ctx, logMsgBuildSQLFailed, err)
	c.recordError(ctx, operation, errorTypeBuild)

	return errors.Join(quantityrule.ErrBuildingQueryFailed, err)
}

func rawText(raw any) string {
	switch v := normalizeValue(raw).(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
