package catalogtest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/require"
)

// Execer is satisfied by *sql.DB and *sqlx.DB.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// GivenArticleWithRawRule stores an article with a verbatim rule value, bypassing the catalog's
// validation so that malformed, locale-formatted or NULL (nil) values can be arranged.
func GivenArticleWithRawRule(t testing.TB, db Execer, dialect, article string, raw any) {
	t.Helper()

	err := InsertArticleWithRawRule(context.Background(), db, dialect, article, raw)
	require.NoError(t, err, "error in arranging test data")
}

// InsertArticleWithRawRule is GivenArticleWithRawRule for callers without a testing.TB.
func InsertArticleWithRawRule(ctx context.Context, db Execer, dialect, article string, raw any) error {
	insertSQL, _, err := goqu.Dialect(dialect).
		Insert("artigo").
		Rows(goqu.Record{"artigo": article, "cdu_minmetrossugestaovenda": raw}).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, insertSQL)

	return err
}

// CleanUpArticles removes all articles.
func CleanUpArticles(t testing.TB, db Execer) {
	t.Helper()

	_, err := db.ExecContext(context.Background(), "DELETE FROM artigo")
	require.NoError(t, err, "error in arranging test data")
}
