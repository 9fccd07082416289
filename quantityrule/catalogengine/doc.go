// Package catalogengine provides a SQL-backed article catalog that serves the minimum-quantity
// lookups of the quantityrule package.
//
// A Catalog implements quantityrule.QueryCapability: it runs the raw lookup query and
// materialises the first row into a quantityrule.ResultSet. Column lookups on that result set
// are case-insensitive, since PostgreSQL folds unquoted aliases like MinMetros to lower case.
//
// Besides the lookup, the catalog offers maintenance operations built with goqu:
// SetMinimumQuantity, ClearMinimumQuantity, MinimumQuantities and EnsureSchema.
//
// Supported connections:
//
//	catalog, err := catalogengine.NewCatalogFromPGXPool(pool)
//	catalog, err := catalogengine.NewCatalogFromSQLDB(db)                        // lib/pq
//	catalog, err := catalogengine.NewCatalogFromSQLX(dbx)
//	catalog, err := catalogengine.NewCatalogFromSQLDB(sqliteDB, catalogengine.WithDialect(catalogengine.DialectSQLite))
package catalogengine
