// Package config loads the minimum-quantity rule configuration and opens the catalog connection.
//
// A configuration file is JSON or YAML, chosen by extension. Environment variables
// prefixed with MINQTY_ override file values. The force-always decision has no default
// and must be stated by one of the two.
//
// Connections are built for the adapters the catalog engine supports: pgx.Pool, sql.DB
// and sqlx.DB against PostgreSQL, and sql.DB against SQLite.
package config
