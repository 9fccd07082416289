package catalogtest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/AntonStoeckl/minquantity-rule/quantityrule/catalogengine"
)

// NewSQLiteDB opens a private in-memory SQLite database that is closed when the test ends.
// The pool is limited to one connection, every new connection would see an empty database.
func NewSQLiteDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err, "error in arranging test data")

	db.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// NewSQLiteCatalog returns a catalog on a fresh in-memory database with the article table in place.
func NewSQLiteCatalog(t testing.TB, options ...catalogengine.Option) (catalogengine.Catalog, *sql.DB) {
	t.Helper()

	db := NewSQLiteDB(t)

	options = append([]catalogengine.Option{catalogengine.WithDialect(catalogengine.DialectSQLite)}, options...)
	catalog, err := catalogengine.NewCatalogFromSQLDB(db, options...)
	require.NoError(t, err, "error in arranging test data")

	require.NoError(t, catalog.EnsureSchema(context.Background()), "error in arranging test data")

	return catalog, db
}
