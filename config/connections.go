package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/AntonStoeckl/minquantity-rule/quantityrule/catalogengine"
)

const (
	defaultMaxConnections    = int32(10)
	defaultMinConnections    = int32(2)
	defaultMaxConnLifetime   = time.Hour
	defaultMaxConnIdleTime   = time.Minute * 5
	defaultHealthCheckPeriod = time.Minute
	defaultConnectTimeout    = time.Second * 5
)

var ErrOpeningDatabaseFailed = errors.New("opening database failed")
var ErrPingingDatabaseFailed = errors.New("pinging database failed")

// PGXPoolConfig parses dsn into a pgxpool.Config with the default pool settings.
func PGXPoolConfig(dsn string) (*pgxpool.Config, error) {
	dbConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Join(ErrOpeningDatabaseFailed, err)
	}

	dbConfig.MaxConns = defaultMaxConnections
	dbConfig.MinConns = defaultMinConnections
	dbConfig.MaxConnLifetime = defaultMaxConnLifetime
	dbConfig.MaxConnIdleTime = defaultMaxConnIdleTime
	dbConfig.HealthCheckPeriod = defaultHealthCheckPeriod
	dbConfig.ConnConfig.ConnectTimeout = defaultConnectTimeout

	return dbConfig, nil
}

// PGXPool opens and pings a pgx pool.
func PGXPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	dbConfig, err := PGXPoolConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return nil, errors.Join(ErrOpeningDatabaseFailed, err)
	}

	if pingErr := pool.Ping(ctx); pingErr != nil {
		pool.Close()
		return nil, errors.Join(ErrPingingDatabaseFailed, pingErr)
	}

	return pool, nil
}

// SQLDB opens and pings a PostgreSQL *sql.DB through lib/pq.
func SQLDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Join(ErrOpeningDatabaseFailed, err)
	}

	configurePool(db)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return nil, errors.Join(ErrPingingDatabaseFailed, pingErr)
	}

	return db, nil
}

// SQLX opens and pings a PostgreSQL *sqlx.DB through lib/pq.
func SQLX(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Join(ErrOpeningDatabaseFailed, err)
	}

	configurePool(db.DB)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return nil, errors.Join(ErrPingingDatabaseFailed, pingErr)
	}

	return db, nil
}

// SQLiteDB opens a SQLite database. dsn is a file path or ":memory:".
// The pool is limited to one connection so an in-memory database is shared by all queries.
func SQLiteDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Join(ErrOpeningDatabaseFailed, err)
	}

	db.SetMaxOpenConns(1)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return nil, errors.Join(ErrPingingDatabaseFailed, pingErr)
	}

	return db, nil
}

// OpenCatalog connects with the configured adapter and builds a Catalog on top of it.
// The returned close function releases the connection.
func OpenCatalog(ctx context.Context, cfg RuleConfig, options ...catalogengine.Option) (catalogengine.Catalog, func(), error) {
	if cfg.DSN == "" {
		return catalogengine.Catalog{}, nil, ErrMissingDSN
	}

	switch cfg.AdapterOrDefault() {
	case AdapterPGX:
		pool, err := PGXPool(ctx, cfg.DSN)
		if err != nil {
			return catalogengine.Catalog{}, nil, err
		}

		catalog, err := catalogengine.NewCatalogFromPGXPool(pool, options...)
		if err != nil {
			pool.Close()
			return catalogengine.Catalog{}, nil, err
		}

		return catalog, pool.Close, nil

	case AdapterSQL:
		db, err := SQLDB(ctx, cfg.DSN)
		if err != nil {
			return catalogengine.Catalog{}, nil, err
		}

		return catalogFromSQLDB(db, options)

	case AdapterSQLX:
		db, err := SQLX(ctx, cfg.DSN)
		if err != nil {
			return catalogengine.Catalog{}, nil, err
		}

		catalog, err := catalogengine.NewCatalogFromSQLX(db, options...)
		if err != nil {
			_ = db.Close()
			return catalogengine.Catalog{}, nil, err
		}

		return catalog, func() { _ = db.Close() }, nil

	case AdapterSQLite:
		db, err := SQLiteDB(ctx, cfg.DSN)
		if err != nil {
			return catalogengine.Catalog{}, nil, err
		}

		return catalogFromSQLDB(db, append([]catalogengine.Option{catalogengine.WithDialect(catalogengine.DialectSQLite)}, options...))

	default:
		return catalogengine.Catalog{}, nil, fmt.Errorf("%w: %q", ErrUnsupportedAdapter, cfg.Adapter)
	}
}

func catalogFromSQLDB(db *sql.DB, options []catalogengine.Option) (catalogengine.Catalog, func(), error) {
	catalog, err := catalogengine.NewCatalogFromSQLDB(db, options...)
	if err != nil {
		_ = db.Close()
		return catalogengine.Catalog{}, nil, err
	}

	return catalog, func() { _ = db.Close() }, nil
}

func configurePool(db *sql.DB) {
	const defaultMaxOpenConnections = 10
	const defaultMaxIdleConnections = 2

	db.SetMaxOpenConns(defaultMaxOpenConnections)
	db.SetMaxIdleConns(defaultMaxIdleConnections)
	db.SetConnMaxLifetime(defaultMaxConnLifetime)
	db.SetConnMaxIdleTime(defaultMaxConnIdleTime)
}
