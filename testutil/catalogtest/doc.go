// Package catalogtest provides article catalog databases and fixtures for tests:
// a private in-memory SQLite database for unit tests and a PostgreSQL container for
// integration tests (build tag "integration").
package catalogtest
