//go:build integration

package catalogtest

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/minquantity-rule/config"
	"github.com/AntonStoeckl/minquantity-rule/quantityrule/catalogengine"
)

// Wrapper types, one per supported PostgreSQL adapter.
const (
	TypePGXPool = "pgxpool"
	TypeSQLDB   = "sqldb"
	TypeSQLX    = "sqlx"
)

// WrapperTypes lists all wrapper types.
var WrapperTypes = []string{TypePGXPool, TypeSQLDB, TypeSQLX}

// Wrapper abstracts over the adapter a PostgreSQL catalog was built from.
type Wrapper interface {
	GetCatalog() catalogengine.Catalog
	// Fixtures returns a connection for arranging rows past the catalog's validation.
	Fixtures() Execer
	Close()
}

// PGXPoolWrapper wraps a pgxpool-based catalog.
type PGXPoolWrapper struct {
	pool     *pgxpool.Pool
	fixtures *sql.DB
	catalog  catalogengine.Catalog
}

func (w *PGXPoolWrapper) GetCatalog() catalogengine.Catalog {
	return w.catalog
}

func (w *PGXPoolWrapper) Fixtures() Execer {
	return w.fixtures
}

func (w *PGXPoolWrapper) Close() {
	_ = w.fixtures.Close()
	w.pool.Close()
}

// SQLDBWrapper wraps a sql.DB-based catalog.
type SQLDBWrapper struct {
	db      *sql.DB
	catalog catalogengine.Catalog
}

func (w *SQLDBWrapper) GetCatalog() catalogengine.Catalog {
	return w.catalog
}

func (w *SQLDBWrapper) Fixtures() Execer {
	return w.db
}

func (w *SQLDBWrapper) Close() {
	_ = w.db.Close()
}

// SQLXWrapper wraps a sqlx.DB-based catalog.
type SQLXWrapper struct {
	db      *sqlx.DB
	catalog catalogengine.Catalog
}

func (w *SQLXWrapper) GetCatalog() catalogengine.Catalog {
	return w.catalog
}

func (w *SQLXWrapper) Fixtures() Execer {
	return w.db
}

func (w *SQLXWrapper) Close() {
	_ = w.db.Close()
}

// CreateWrapper connects to dsn through the adapter named by wrapperType, builds a catalog with
// options, makes sure the article table exists and closes everything when the test ends.
func CreateWrapper(t testing.TB, wrapperType, dsn string, options ...catalogengine.Option) Wrapper {
	t.Helper()

	ctx := context.Background()
	var wrapper Wrapper

	switch wrapperType {
	case TypePGXPool:
		pool, err := config.PGXPool(ctx, dsn)
		require.NoError(t, err, "error connecting to DB pool in test setup")
		catalog, err := catalogengine.NewCatalogFromPGXPool(pool, options...)
		require.NoError(t, err, "error creating catalog in test setup")
		wrapper = &PGXPoolWrapper{pool: pool, fixtures: stdlib.OpenDBFromPool(pool), catalog: catalog}

	case TypeSQLDB:
		db, err := config.SQLDB(ctx, dsn)
		require.NoError(t, err, "error connecting to DB in test setup")
		catalog, err := catalogengine.NewCatalogFromSQLDB(db, options...)
		require.NoError(t, err, "error creating catalog in test setup")
		wrapper = &SQLDBWrapper{db: db, catalog: catalog}

	case TypeSQLX:
		db, err := config.SQLX(ctx, dsn)
		require.NoError(t, err, "error connecting to DB in test setup")
		catalog, err := catalogengine.NewCatalogFromSQLX(db, options...)
		require.NoError(t, err, "error creating catalog in test setup")
		wrapper = &SQLXWrapper{db: db, catalog: catalog}

	default:
		panic(fmt.Sprintf("unsupported wrapper type: %s", wrapperType))
	}

	t.Cleanup(wrapper.Close)
	require.NoError(t, wrapper.GetCatalog().EnsureSchema(ctx), "error creating schema in test setup")

	return wrapper
}

// CleanUp removes all articles through the wrapper's fixture connection.
func CleanUp(t testing.TB, wrapper Wrapper) {
	t.Helper()

	CleanUpArticles(t, wrapper.Fixtures())
}
