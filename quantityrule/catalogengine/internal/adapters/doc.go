// Package adapters provide database adapter implementations for the article catalog.
//
// The catalog can be backed by pgxpool.Pool, sql.DB or sqlx.DB. All adapters present the
// same DBAdapter interface, so the catalog runs raw lookup queries and maintenance statements
// without knowing which library holds the connection.
package adapters
