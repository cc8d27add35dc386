package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"retronotes/internal/config"
	"retronotes/internal/errors"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Gateway owns the durable copy of the note collection. It is the sole
// reader/writer of the underlying database; the in-memory store treats
// it as a write-behind target.
type Gateway struct {
	sql *sql.DB
}

// Open initializes the SQLite database at baseDir/retronotes.db and
// returns a gateway over it. Creating the container is lazy in the
// sense that the first Open creates everything; repeated calls are
// idempotent. The baseDir parameter allows tests to use t.TempDir()
// instead of ~/.retronotes.
func Open(baseDir string, cfg *config.Config) (*Gateway, error) {
	// Create base directory with restricted permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, errors.NewStorageUnavailable(fmt.Errorf("create base directory: %w", err))
	}
	_ = os.Chmod(baseDir, 0700)

	// Create exports subdirectory
	exportsDir := filepath.Join(baseDir, "exports")
	if err := os.MkdirAll(exportsDir, 0700); err != nil {
		return nil, errors.NewStorageUnavailable(fmt.Errorf("create exports directory: %w", err))
	}
	_ = os.Chmod(exportsDir, 0700)

	// Open database with pragmas in connection string (applies to all connections)
	dbPath := filepath.Join(baseDir, "retronotes.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.NewStorageUnavailable(fmt.Errorf("open database: %w", err))
	}

	if err := verifyWALMode(database); err != nil {
		database.Close()
		return nil, errors.NewStorageUnavailable(err)
	}

	// Run migrations (this creates the file if it doesn't exist)
	if err := migrate(database); err != nil {
		database.Close()
		return nil, errors.NewStorageUnavailable(err)
	}

	_ = os.Chmod(dbPath, 0600)

	if cfg != nil {
		if cfg.DBMaxOpenConns > 0 {
			database.SetMaxOpenConns(cfg.DBMaxOpenConns)
		}
		if cfg.DBMaxIdleConns > 0 {
			database.SetMaxIdleConns(cfg.DBMaxIdleConns)
		}
	}

	return &Gateway{sql: database}, nil
}

// Close closes the underlying database.
func (g *Gateway) Close() error {
	return g.sql.Close()
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := getUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: Initial schema (v1)
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS notes (
		  id            TEXT PRIMARY KEY,
		  title         TEXT NOT NULL,
		  theme         TEXT NOT NULL DEFAULT 'default',
		  blocks_json   TEXT NOT NULL,
		  tags_json     TEXT,
		  is_pinned     INTEGER NOT NULL DEFAULT 0,
		  is_public     INTEGER NOT NULL DEFAULT 0,
		  slug          TEXT,
		  versions_json TEXT,
		  created_at    INTEGER NOT NULL,
		  updated_at    INTEGER NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_notes_slug
		ON notes(slug)
		WHERE slug IS NOT NULL AND slug != '';

		CREATE INDEX IF NOT EXISTS idx_notes_is_public
		ON notes(is_public);

		CREATE INDEX IF NOT EXISTS idx_notes_updated
		ON notes(updated_at DESC);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := setUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// getUserVersion returns the current schema version (user_version pragma).
func getUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// setUserVersion sets the schema version (user_version pragma).
func setUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
