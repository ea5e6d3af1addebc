package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

//go:embed migrations/*/*.sql
var migrations embed.FS

// NewDB opens a connection pool for the given driver. MySQL is the production
// store; SQLite backs local development and tests.
func NewDB(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverMySQL, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		// One connection keeps in-memory databases alive and serialises writers.
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		slog.Warn("database ping failed", "driver", driver, "error", err)
	}

	return db, nil
}

// Migrate applies the embedded schema migrations for driver.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	dialect := driver
	if driver == DriverSQLite {
		dialect = "sqlite3"
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations/"+driver); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}
