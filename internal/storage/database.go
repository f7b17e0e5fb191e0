// internal/storage/database.go
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // Driver registration

	"github.com/Annany2002/datalens-backend/config"
)

// MemoryDSN keeps the metadata database in memory when used as METADATA_DB_FILE.
const MemoryDSN = ":memory:"

var metadataSchema = []struct {
	name string
	ddl  string
}{
	{"databases", `
	CREATE TABLE IF NOT EXISTS databases (
		id TEXT PRIMARY KEY NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'sqlite',
		connection_string TEXT NOT NULL DEFAULT '',
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL
	);`},
	{"queries", `
	CREATE TABLE IF NOT EXISTS queries (
		id TEXT PRIMARY KEY NOT NULL,
		name TEXT,
		natural_language TEXT NOT NULL DEFAULT '',
		sql_query TEXT NOT NULL,
		database_id TEXT NOT NULL DEFAULT '',
		results TEXT,
		execution_time INTEGER NOT NULL DEFAULT 0,
		row_count INTEGER NOT NULL DEFAULT 0,
		is_saved INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	);`},
	{"dashboards", `
	CREATE TABLE IF NOT EXISTS dashboards (
		id TEXT PRIMARY KEY NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		layout TEXT NOT NULL,
		is_shared INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	);`},
	{"charts", `
	CREATE TABLE IF NOT EXISTS charts (
		id TEXT PRIMARY KEY NOT NULL,
		dashboard_id TEXT,
		query_id TEXT,
		type TEXT NOT NULL,
		config TEXT NOT NULL,
		position TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);`},
	{"users", `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY NOT NULL,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);`},
}

// ConnectMetadataDB opens the metadata SQLite database and ensures the
// record tables exist. Relationships between tables are weak ids, so no
// foreign keys are declared.
func ConnectMetadataDB(cfg *config.Config) (*sql.DB, error) {
	dsn := MemoryDSN
	if cfg.MetadataDbFile != MemoryDSN {
		if err := os.MkdirAll(cfg.MetadataDbDir, 0o750); err != nil {
			customLog.Warnf("Storage: Error creating data directory '%s': %v", cfg.MetadataDbDir, err)
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		dsn = filepath.Join(cfg.MetadataDbDir, cfg.MetadataDbFile) + "?_journal_mode=WAL&_busy_timeout=5000"
	}
	customLog.Printf("Storage: Initializing metadata database: %s", dsn)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		customLog.Warnf("Storage: Failed to open metadata db '%s': %v", dsn, err)
		return nil, fmt.Errorf("failed to open metadata db: %w", err)
	}
	if dsn == MemoryDSN {
		// Every pooled connection to :memory: would be a separate database.
		db.SetMaxOpenConns(1)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		customLog.Warnf("Storage: Failed to ping metadata db '%s': %v", dsn, err)
		return nil, fmt.Errorf("failed to connect to metadata db: %w", err)
	}

	for _, table := range metadataSchema {
		if _, err = db.Exec(table.ddl); err != nil {
			db.Close()
			customLog.Warnf("Storage: Failed to create %s table: %v", table.name, err)
			return nil, fmt.Errorf("failed to ensure %s table: %w", table.name, err)
		}
	}
	customLog.Println("Storage: Metadata tables ensured.")

	return db, nil
}
