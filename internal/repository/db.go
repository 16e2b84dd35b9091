package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Config struct {
	DSN         string
	DialTimeout time.Duration
}

const schema = `
CREATE TABLE IF NOT EXISTS invoices (
	id                TEXT PRIMARY KEY,
	source_path       TEXT NOT NULL,
	vendor_name       TEXT NOT NULL DEFAULT '',
	invoice_number    TEXT NOT NULL DEFAULT '',
	invoice_date      TEXT NOT NULL DEFAULT '',
	line_items        TEXT NOT NULL DEFAULT '[]',
	subtotal          REAL,
	tax_amount        REAL,
	total_amount      REAL,
	confidence_score  REAL,
	retry_count       INTEGER NOT NULL DEFAULT 0,
	validation_errors TEXT NOT NULL DEFAULT '[]',
	anomaly_flags     TEXT NOT NULL DEFAULT '[]',
	status            TEXT NOT NULL,
	is_tax_exempt     INTEGER NOT NULL DEFAULT 0,
	tax_exempt_reason TEXT NOT NULL DEFAULT '',
	created_at        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS whitelisted_vendors (
	id          TEXT PRIMARY KEY,
	vendor_name TEXT NOT NULL,
	added_by    TEXT NOT NULL DEFAULT '',
	notes       TEXT NOT NULL DEFAULT '',
	is_active   INTEGER NOT NULL DEFAULT 1,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS products (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	is_active   INTEGER NOT NULL DEFAULT 1,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
`

// Open connects to the database named by the DSN and applies the schema.
// A postgres:// DSN goes through pgx; anything else is treated as a sqlite
// file path. The DDL sticks to TEXT/REAL/INTEGER so both engines accept it.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, error) {
	driver := "sqlite"
	dsn := cfg.DSN
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = "pgx"
	}

	logger.Info("connecting to database", "driver", driver)
	db, err := sql.Open(driver, dsn)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return nil, err
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		_ = db.Close()
		return nil, err
	}

	if driver == "sqlite" {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON;"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply sqlite pragmas: %w", err)
		}
		// modernc sqlite serializes writes; a single pooled conn avoids
		// SQLITE_BUSY under concurrent command runs.
		db.SetMaxOpenConns(1)
	}

	// pgx rejects multi-statement Exec, so the DDL runs one statement at
	// a time.
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	logger.Info("successfully connected to database")
	return db, nil
}

// Close closes the database connection gracefully.
func Close(db *sql.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
		return
	}
	logger.Info("database connection closed")
}
