package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// NewSQLite opens (or creates) a SQLite-backed adapter at dbPath and runs
// migrations. The returned adapter also implements domain.ViewStore.
func NewSQLite(dbPath string) (*SQL, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite only supports one writer — limit to a single connection to
	// prevent SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s, err := newSQL(db, dialect{
		name: "sqlite",
		migrations: []string{
			`CREATE TABLE IF NOT EXISTS blocks (
				id TEXT PRIMARY KEY,
				type TEXT NOT NULL,
				parent_id TEXT NOT NULL DEFAULT '',
				data_json TEXT NOT NULL DEFAULT '{}',
				children_json TEXT NOT NULL DEFAULT '[]',
				metadata_json TEXT NOT NULL DEFAULT '{}',
				version INTEGER NOT NULL DEFAULT 1,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_blocks_parent ON blocks(parent_id)`,
			`CREATE INDEX IF NOT EXISTS idx_blocks_type ON blocks(type)`,
			`CREATE TABLE IF NOT EXISTS views (
				id TEXT PRIMARY KEY,
				database_id TEXT NOT NULL,
				name TEXT NOT NULL DEFAULT 'Untitled',
				type TEXT NOT NULL,
				filter_json TEXT NOT NULL DEFAULT 'null',
				sort_json TEXT NOT NULL DEFAULT 'null',
				config_json TEXT NOT NULL DEFAULT '{}',
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_views_database ON views(database_id)`,
		},
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}
