// internal/dbaccess/dialect.go
package dbaccess

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // Driver registration
	_ "github.com/lib/pq"              // Driver registration
	_ "github.com/mattn/go-sqlite3"    // Driver registration

	"github.com/Annany2002/datalens-backend/internal/core"
	"github.com/Annany2002/datalens-backend/internal/domain"
)

const sqliteMemoryDSN = ":memory:"

// dialect knows how to open and introspect one kind of database.
type dialect struct {
	driver     string
	dsn        func(connectionString string) string
	prepare    func(connectionString string) error
	introspect func(ctx context.Context, db *sql.DB) ([]TableSchema, error)
}

var dialects = map[string]dialect{
	domain.DatabaseTypeSQLite: {
		driver:     "sqlite3",
		dsn:        sqliteDSN,
		prepare:    ensureSQLiteDir,
		introspect: introspectSQLite,
	},
	domain.DatabaseTypePostgres: {
		driver:     "postgres",
		dsn:        passthroughDSN,
		introspect: introspectPostgres,
	},
	domain.DatabaseTypeMySQL: {
		driver:     "mysql",
		dsn:        passthroughDSN,
		introspect: introspectMySQL,
	},
}

// Target identifies one cached connection.
type Target struct {
	Type             string
	ConnectionString string
}

// TargetFor resolves the connection target of a registered database.
func TargetFor(db *domain.Database) (Target, error) {
	dbType, ok := core.NormalizeDatabaseType(db.Type)
	if !ok {
		return Target{}, fmt.Errorf("%w: %s", ErrUnsupportedDatabaseType, db.Type)
	}
	return Target{Type: dbType, ConnectionString: db.ConnectionString}, nil
}

func (t Target) dialect() dialect {
	return dialects[t.Type]
}

func passthroughDSN(connectionString string) string {
	return connectionString
}

func isSQLiteMemory(connectionString string) bool {
	return connectionString == "" || connectionString == sqliteMemoryDSN || strings.Contains(connectionString, "mode=memory")
}

func sqliteDSN(connectionString string) string {
	switch {
	case connectionString == "":
		return sqliteMemoryDSN
	case isSQLiteMemory(connectionString), strings.HasPrefix(connectionString, "file:"), strings.Contains(connectionString, "?"):
		return connectionString
	}
	return connectionString + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
}

func ensureSQLiteDir(connectionString string) error {
	if isSQLiteMemory(connectionString) || strings.HasPrefix(connectionString, "file:") {
		return nil
	}
	path := connectionString
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create database directory '%s': %w", dir, err)
	}
	return nil
}

// openConnection opens a pool for target. Nothing is dialled until first use.
func openConnection(target Target) (*sql.DB, error) {
	d := target.dialect()
	if d.prepare != nil {
		if err := d.prepare(target.ConnectionString); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open(d.driver, d.dsn(target.ConnectionString))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}
	if target.Type == domain.DatabaseTypeSQLite && isSQLiteMemory(target.ConnectionString) {
		// Each connection to :memory: is its own database.
		db.SetMaxOpenConns(1)
		return db, nil
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(10 * time.Minute)
	return db, nil
}

func introspectSQLite(ctx context.Context, db *sql.DB) ([]TableSchema, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name;`)
	if err != nil {
		return nil, fmt.Errorf("database error listing tables: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed processing table list: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed processing table list: %w", err)
	}
	rows.Close()

	tables := make([]TableSchema, 0, len(names))
	for _, name := range names {
		columns, err := sqliteColumns(ctx, db, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, TableSchema{Name: name, Columns: columns})
	}
	return tables, nil
}

func sqliteColumns(ctx context.Context, db *sql.DB, tableName string) ([]ColumnSchema, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s);", core.QuoteIdentifier(tableName)))
	if err != nil {
		customLog.Warnf("DBAccess: Failed PRAGMA for Table '%s': %v", tableName, err)
		return nil, fmt.Errorf("failed to retrieve schema of '%s': %w", tableName, err)
	}
	defer rows.Close()

	columns := make([]ColumnSchema, 0)
	for rows.Next() {
		var (
			cid       int
			name      string
			sqlType   string
			notNull   int
			dfltValue any
			pk        int
		)
		if err := rows.Scan(&cid, &name, &sqlType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to parse schema of '%s': %w", tableName, err)
		}
		columns = append(columns, ColumnSchema{
			Name:       name,
			Type:       sqlType,
			Nullable:   notNull == 0,
			PrimaryKey: pk > 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schema of '%s': %w", tableName, err)
	}
	return columns, nil
}

const postgresColumnsSQL = `
SELECT c.table_name, c.column_name, c.data_type, c.is_nullable = 'YES',
	EXISTS (
		SELECT 1
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage k
			ON tc.constraint_name = k.constraint_name
			AND tc.table_schema = k.table_schema
			AND tc.table_name = k.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND k.table_schema = c.table_schema
			AND k.table_name = c.table_name
			AND k.column_name = c.column_name
	)
FROM information_schema.columns c
JOIN information_schema.tables t
	ON t.table_schema = c.table_schema AND t.table_name = c.table_name
WHERE t.table_type = 'BASE TABLE'
	AND c.table_schema NOT IN ('pg_catalog', 'information_schema')
ORDER BY c.table_name, c.ordinal_position;`

const mysqlColumnsSQL = `
SELECT c.table_name, c.column_name, c.column_type, c.is_nullable = 'YES', c.column_key = 'PRI'
FROM information_schema.columns c
JOIN information_schema.tables t
	ON t.table_schema = c.table_schema AND t.table_name = c.table_name
WHERE t.table_type = 'BASE TABLE'
	AND c.table_schema = DATABASE()
ORDER BY c.table_name, c.ordinal_position;`

func introspectPostgres(ctx context.Context, db *sql.DB) ([]TableSchema, error) {
	return introspectInformationSchema(ctx, db, postgresColumnsSQL)
}

func introspectMySQL(ctx context.Context, db *sql.DB) ([]TableSchema, error) {
	return introspectInformationSchema(ctx, db, mysqlColumnsSQL)
}

// introspectInformationSchema groups (table, column, type, nullable, pk) rows
// ordered by table into TableSchema values.
func introspectInformationSchema(ctx context.Context, db *sql.DB, query string) ([]TableSchema, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("database error reading information_schema: %w", err)
	}
	defer rows.Close()

	tables := make([]TableSchema, 0)
	for rows.Next() {
		var (
			tableName string
			col       ColumnSchema
		)
		if err := rows.Scan(&tableName, &col.Name, &col.Type, &col.Nullable, &col.PrimaryKey); err != nil {
			return nil, fmt.Errorf("failed to parse information_schema row: %w", err)
		}
		if n := len(tables); n == 0 || tables[n-1].Name != tableName {
			tables = append(tables, TableSchema{Name: tableName, Columns: make([]ColumnSchema, 0)})
		}
		last := &tables[len(tables)-1]
		last.Columns = append(last.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed processing information_schema: %w", err)
	}
	return tables, nil
}
