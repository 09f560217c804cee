package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// NewMySQL opens a MySQL-backed adapter using a go-sql-driver DSN
// (e.g. "user:pass@tcp(host:3306)/db?parseTime=true") and runs migrations.
// The DSN must set parseTime=true so timestamps scan into time.Time.
// The returned adapter also implements domain.ViewStore.
func NewMySQL(dsn string) (*SQL, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(10 * time.Minute)

	s, err := newSQL(db, dialect{
		name: "mysql",
		migrations: []string{
			`CREATE TABLE IF NOT EXISTS blocks (
				id VARCHAR(36) PRIMARY KEY,
				type VARCHAR(64) NOT NULL,
				parent_id VARCHAR(36) NOT NULL DEFAULT '',
				data_json MEDIUMTEXT NOT NULL,
				children_json MEDIUMTEXT NOT NULL,
				metadata_json TEXT NOT NULL,
				version BIGINT NOT NULL DEFAULT 1,
				created_at DATETIME(6) NOT NULL,
				updated_at DATETIME(6) NOT NULL,
				INDEX idx_blocks_parent (parent_id),
				INDEX idx_blocks_type (type)
			)`,
			`CREATE TABLE IF NOT EXISTS views (
				id VARCHAR(36) PRIMARY KEY,
				database_id VARCHAR(36) NOT NULL,
				name VARCHAR(200) NOT NULL DEFAULT 'Untitled',
				type VARCHAR(32) NOT NULL,
				filter_json MEDIUMTEXT NOT NULL,
				sort_json TEXT NOT NULL,
				config_json TEXT NOT NULL,
				created_at DATETIME(6) NOT NULL,
				updated_at DATETIME(6) NOT NULL,
				INDEX idx_views_database (database_id)
			)`,
		},
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}
