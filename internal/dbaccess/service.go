// internal/dbaccess/service.go
package dbaccess

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Annany2002/datalens-backend/internal/core"
	"github.com/Annany2002/datalens-backend/internal/domain"
	"github.com/Annany2002/datalens-backend/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

const schemaCacheSize = 128

// QueryResult is the outcome of one statement. Rows and Columns are never nil.
type QueryResult struct {
	Rows          []map[string]any `json:"rows"`
	Columns       []string         `json:"columns"`
	RowCount      int64            `json:"rowCount"`
	ExecutionTime int64            `json:"executionTime"`
}

// Schema lists the user tables of a database.
type Schema struct {
	Tables []TableSchema `json:"tables"`
}

type TableSchema struct {
	Name    string         `json:"name"`
	Columns []ColumnSchema `json:"columns"`
}

type ColumnSchema struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primaryKey"`
}

// Service runs statements against registered databases. It keeps one pool
// per Target until CloseAllConnections.
type Service struct {
	mu           sync.Mutex
	conns        map[Target]*sql.DB
	queryTimeout time.Duration
	schemaCache  *expirable.LRU[Target, string]
}

// NewService creates a Service. A non-positive queryTimeout disables the
// per-statement deadline; a non-positive schemaTTL keeps cached schemas until
// a write invalidates them.
func NewService(queryTimeout, schemaTTL time.Duration) *Service {
	return &Service{
		conns:        make(map[Target]*sql.DB),
		queryTimeout: queryTimeout,
		schemaCache:  expirable.NewLRU[Target, string](schemaCacheSize, nil, schemaTTL),
	}
}

// connection returns the cached pool for target, opening it on first use.
func (s *Service) connection(target Target) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if db, ok := s.conns[target]; ok {
		return db, nil
	}
	db, err := openConnection(target)
	if err != nil {
		customLog.Warnf("DBAccess: Failed to open %s connection: %v", target.Type, err)
		return nil, err
	}
	customLog.Printf("DBAccess: Opened %s connection (%d cached)", target.Type, len(s.conns)+1)
	s.conns[target] = db
	return db, nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

func (s *Service) resolve(db *domain.Database) (Target, *sql.DB, error) {
	target, err := TargetFor(db)
	if err != nil {
		return Target{}, nil, err
	}
	conn, err := s.connection(target)
	if err != nil {
		return Target{}, nil, newDatabaseError(err)
	}
	return target, conn, nil
}

// ExecuteQuery runs sqlText against db. Read statements and writes with a
// RETURNING clause return their rows; other writes return the affected row
// count. Anything that is not a plain read invalidates the cached schema of
// the target.
func (s *Service) ExecuteQuery(ctx context.Context, db *domain.Database, sqlText string) (*QueryResult, error) {
	target, conn, err := s.resolve(db)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	var result *QueryResult
	isRead := core.IsReadStatement(sqlText)
	if isRead || core.HasReturningClause(sqlText) {
		result, err = runRead(ctx, conn, sqlText)
	} else {
		result, err = runWrite(ctx, conn, sqlText)
	}
	if !isRead {
		s.schemaCache.Remove(target)
	}
	if err != nil {
		customLog.Warnf("DBAccess: Statement failed on database '%s': %v", db.ID, err)
		return nil, newDatabaseError(err)
	}
	result.ExecutionTime = time.Since(start).Milliseconds()
	customLog.Debugf("DBAccess: Statement on database '%s' returned %d rows in %dms", db.ID, result.RowCount, result.ExecutionTime)
	return result, nil
}

func runRead(ctx context.Context, conn *sql.DB, sqlText string) (*QueryResult, error) {
	rows, err := conn.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed processing results: %w", err)
	}
	numColumns := len(columns)
	results := make([]map[string]any, 0)
	keys := uniqueColumns(columns)

	for rows.Next() {
		scanArgs := make([]any, numColumns)
		values := make([]any, numColumns)
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed reading record data: %w", err)
		}

		rowData := make(map[string]any, numColumns)
		for i, colName := range columns {
			rowData[colName] = jsonSafe(values[i])
		}
		results = append(results, rowData)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	// Column names are only reported alongside at least one row.
	if len(results) == 0 {
		keys = []string{}
	}
	return &QueryResult{Rows: results, Columns: keys, RowCount: int64(len(results))}, nil
}

// uniqueColumns drops repeated names so Columns matches the keys of a row map,
// where the last repeated column wins.
func uniqueColumns(columns []string) []string {
	seen := make(map[string]bool, len(columns))
	keys := make([]string, 0, len(columns))
	for _, name := range columns {
		if seen[name] {
			continue
		}
		seen[name] = true
		keys = append(keys, name)
	}
	return keys
}

// jsonSafe converts driver values into something encoding/json can render.
// Byte slices become strings and non-finite floats become null.
func jsonSafe(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case float64:
		if math.IsInf(val, 0) || math.IsNaN(val) {
			return nil
		}
	case float32:
		if math.IsInf(float64(val), 0) || math.IsNaN(float64(val)) {
			return nil
		}
	}
	return v
}

func runWrite(ctx context.Context, conn *sql.DB, sqlText string) (*QueryResult, error) {
	res, err := conn.ExecContext(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		affected = 0
	}
	return &QueryResult{Rows: []map[string]any{}, Columns: []string{}, RowCount: affected}, nil
}

// GetTableSchema lists the user tables of db with their columns.
func (s *Service) GetTableSchema(ctx context.Context, db *domain.Database) (*Schema, error) {
	target, conn, err := s.resolve(db)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tables, err := target.dialect().introspect(ctx, conn)
	if err != nil {
		customLog.Warnf("DBAccess: Schema introspection failed on database '%s': %v", db.ID, err)
		return nil, newDatabaseError(err)
	}
	return &Schema{Tables: tables}, nil
}

// SchemaContext returns the indented JSON schema of db for use in translation
// prompts. Results are cached per target.
func (s *Service) SchemaContext(ctx context.Context, db *domain.Database) (string, error) {
	target, err := TargetFor(db)
	if err != nil {
		return "", err
	}
	if cached, ok := s.schemaCache.Get(target); ok {
		return cached, nil
	}

	schema, err := s.GetTableSchema(ctx, db)
	if err != nil {
		return "", err
	}
	rendered, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render schema: %w", err)
	}
	s.schemaCache.Add(target, string(rendered))
	return string(rendered), nil
}

// TestConnection reports whether a trivial statement succeeds on db.
func (s *Service) TestConnection(ctx context.Context, db *domain.Database) bool {
	_, conn, err := s.resolve(db)
	if err != nil {
		customLog.Warnf("DBAccess: Connection test for database '%s' failed: %v", db.ID, err)
		return false
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var one int
	if err := conn.QueryRowContext(ctx, "SELECT 1 as test").Scan(&one); err != nil {
		customLog.Warnf("DBAccess: Connection test for database '%s' failed: %v", db.ID, err)
		return false
	}
	return true
}

// CloseAllConnections closes and forgets every cached pool.
func (s *Service) CloseAllConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for target, db := range s.conns {
		if err := db.Close(); err != nil {
			customLog.Warnf("DBAccess: Error closing %s connection: %v", target.Type, err)
		}
		delete(s.conns, target)
	}
	s.schemaCache.Purge()
	customLog.Println("DBAccess: All database connections closed.")
}
