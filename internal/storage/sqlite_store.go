// internal/storage/sqlite_store.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/Annany2002/datalens-backend/config"
	"github.com/Annany2002/datalens-backend/internal/domain"
)

// SQLiteStore persists records in the metadata SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore connects to the metadata database described by cfg.
func NewSQLiteStore(cfg *config.Config) (*SQLiteStore, error) {
	db, err := ConnectMetadataDB(cfg)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the metadata database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// rowQuerier is satisfied by *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func nullRaw(raw json.RawMessage) sql.NullString {
	if raw == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}

func rawFrom(ns sql.NullString) json.RawMessage {
	if !ns.Valid {
		return nil
	}
	return json.RawMessage(ns.String)
}

// deleteByID removes one row and reports whether it existed.
func (s *SQLiteStore) deleteByID(ctx context.Context, table, id string) (bool, error) {
	// table is always one of the constant names below.
	result, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
	if err != nil {
		customLog.Warnf("Storage: Failed DELETE from %s for id %s: %v", table, id, err)
		return false, fmt.Errorf("database error during delete: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed confirming delete: %w", err)
	}
	return affected > 0, nil
}

// --- Databases ---

const databaseColumns = `id, name, type, connection_string, is_active, created_at`

func scanDatabase(row rowScanner) (*domain.Database, error) {
	var db domain.Database
	if err := row.Scan(&db.ID, &db.Name, &db.Type, &db.ConnectionString, &db.IsActive, &db.CreatedAt); err != nil {
		return nil, err
	}
	return &db, nil
}

func (s *SQLiteStore) ListDatabases(ctx context.Context) ([]domain.Database, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+databaseColumns+` FROM databases ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		customLog.Warnf("Storage: Error listing databases: %v", err)
		return nil, fmt.Errorf("database error listing databases: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Database, 0)
	for rows.Next() {
		db, err := scanDatabase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed processing database list: %w", err)
		}
		out = append(out, *db)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading database list: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) getDatabase(ctx context.Context, q rowQuerier, id string) (*domain.Database, error) {
	db, err := scanDatabase(q.QueryRowContext(ctx, `SELECT `+databaseColumns+` FROM databases WHERE id = ? LIMIT 1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDatabaseNotFound
		}
		customLog.Warnf("Storage: Failed to find database %s: %v", id, err)
		return nil, fmt.Errorf("database error finding database: %w", err)
	}
	return db, nil
}

func (s *SQLiteStore) GetDatabase(ctx context.Context, id string) (*domain.Database, error) {
	return s.getDatabase(ctx, s.db, id)
}

func (s *SQLiteStore) CreateDatabase(ctx context.Context, in domain.NewDatabase) (*domain.Database, error) {
	db := domain.Database{
		ID:               uuid.New().String(),
		Name:             in.Name,
		Type:             in.Type,
		ConnectionString: in.ConnectionString,
		IsActive:         in.IsActive,
		CreatedAt:        s.now(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO databases (`+databaseColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		db.ID, db.Name, db.Type, db.ConnectionString, db.IsActive, db.CreatedAt)
	if err != nil {
		customLog.Warnf("Storage: Failed to insert database '%s': %v", in.Name, err)
		return nil, fmt.Errorf("database error registering database: %w", err)
	}
	return &db, nil
}

func (s *SQLiteStore) UpdateDatabase(ctx context.Context, id string, patch domain.DatabaseUpdate) (*domain.Database, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin update: %w", err)
	}
	defer tx.Rollback()

	db, err := s.getDatabase(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(db)
	_, err = tx.ExecContext(ctx,
		`UPDATE databases SET name = ?, type = ?, connection_string = ?, is_active = ? WHERE id = ?`,
		db.Name, db.Type, db.ConnectionString, db.IsActive, id)
	if err != nil {
		customLog.Warnf("Storage: Failed to update database %s: %v", id, err)
		return nil, fmt.Errorf("database error during database update: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit database update: %w", err)
	}
	return db, nil
}

func (s *SQLiteStore) DeleteDatabase(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "databases", id)
}

// --- Queries ---

const queryColumns = `id, name, natural_language, sql_query, database_id, results, execution_time, row_count, is_saved, created_at`

func scanQuery(row rowScanner) (*domain.Query, error) {
	var q domain.Query
	var name, results sql.NullString
	err := row.Scan(&q.ID, &name, &q.NaturalLanguage, &q.SQLQuery, &q.DatabaseID, &results,
		&q.ExecutionTime, &q.RowCount, &q.IsSaved, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	q.Name = stringPtr(name)
	q.Results = rawFrom(results)
	return &q, nil
}

func (s *SQLiteStore) listQueries(ctx context.Context, where string, args ...any) ([]domain.Query, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+queryColumns+` FROM queries `+where, args...)
	if err != nil {
		customLog.Warnf("Storage: Error listing queries: %v", err)
		return nil, fmt.Errorf("database error listing queries: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Query, 0)
	for rows.Next() {
		q, err := scanQuery(rows)
		if err != nil {
			return nil, fmt.Errorf("failed processing query list: %w", err)
		}
		out = append(out, *q)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading query list: %w", err)
	}
	return out, nil
}

const newestFirst = ` ORDER BY created_at DESC, rowid DESC`

func (s *SQLiteStore) ListQueries(ctx context.Context) ([]domain.Query, error) {
	return s.listQueries(ctx, newestFirst)
}

func (s *SQLiteStore) ListQueriesByDatabase(ctx context.Context, databaseID string) ([]domain.Query, error) {
	return s.listQueries(ctx, `WHERE database_id = ?`+newestFirst, databaseID)
}

func (s *SQLiteStore) ListSavedQueries(ctx context.Context) ([]domain.Query, error) {
	return s.listQueries(ctx, `WHERE is_saved = 1`+newestFirst)
}

func (s *SQLiteStore) ListRecentQueries(ctx context.Context, limit int) ([]domain.Query, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return s.listQueries(ctx, newestFirst+` LIMIT ?`, limit)
}

func (s *SQLiteStore) getQuery(ctx context.Context, q rowQuerier, id string) (*domain.Query, error) {
	query, err := scanQuery(q.QueryRowContext(ctx, `SELECT `+queryColumns+` FROM queries WHERE id = ? LIMIT 1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQueryNotFound
		}
		customLog.Warnf("Storage: Failed to find query %s: %v", id, err)
		return nil, fmt.Errorf("database error finding query: %w", err)
	}
	return query, nil
}

func (s *SQLiteStore) GetQuery(ctx context.Context, id string) (*domain.Query, error) {
	return s.getQuery(ctx, s.db, id)
}

func (s *SQLiteStore) CreateQuery(ctx context.Context, in domain.NewQuery) (*domain.Query, error) {
	q := domain.Query{
		ID:              uuid.New().String(),
		Name:            in.Name,
		NaturalLanguage: in.NaturalLanguage,
		SQLQuery:        in.SQLQuery,
		DatabaseID:      in.DatabaseID,
		Results:         in.Results,
		ExecutionTime:   in.ExecutionTime,
		RowCount:        in.RowCount,
		IsSaved:         in.IsSaved,
		CreatedAt:       s.now(),
	}.Clone()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO queries (`+queryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, nullString(q.Name), q.NaturalLanguage, q.SQLQuery, q.DatabaseID, nullRaw(q.Results),
		q.ExecutionTime, q.RowCount, q.IsSaved, q.CreatedAt)
	if err != nil {
		customLog.Warnf("Storage: Failed to insert query: %v", err)
		return nil, fmt.Errorf("database error during query creation: %w", err)
	}
	return &q, nil
}

func (s *SQLiteStore) UpdateQuery(ctx context.Context, id string, patch domain.QueryUpdate) (*domain.Query, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin update: %w", err)
	}
	defer tx.Rollback()

	q, err := s.getQuery(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(q)
	_, err = tx.ExecContext(ctx, `UPDATE queries SET name = ?, is_saved = ? WHERE id = ?`,
		nullString(q.Name), q.IsSaved, id)
	if err != nil {
		customLog.Warnf("Storage: Failed to update query %s: %v", id, err)
		return nil, fmt.Errorf("database error during query update: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit query update: %w", err)
	}
	return q, nil
}

func (s *SQLiteStore) DeleteQuery(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "queries", id)
}

// --- Dashboards ---

const dashboardColumns = `id, name, description, layout, is_shared, created_at`

func scanDashboard(row rowScanner) (*domain.Dashboard, error) {
	var d domain.Dashboard
	var description sql.NullString
	var layout string
	if err := row.Scan(&d.ID, &d.Name, &description, &layout, &d.IsShared, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.Description = stringPtr(description)
	d.Layout = json.RawMessage(layout)
	return &d, nil
}

func (s *SQLiteStore) ListDashboards(ctx context.Context) ([]domain.Dashboard, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+dashboardColumns+` FROM dashboards ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		customLog.Warnf("Storage: Error listing dashboards: %v", err)
		return nil, fmt.Errorf("database error listing dashboards: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Dashboard, 0)
	for rows.Next() {
		d, err := scanDashboard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed processing dashboard list: %w", err)
		}
		out = append(out, *d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading dashboard list: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) getDashboard(ctx context.Context, q rowQuerier, id string) (*domain.Dashboard, error) {
	d, err := scanDashboard(q.QueryRowContext(ctx, `SELECT `+dashboardColumns+` FROM dashboards WHERE id = ? LIMIT 1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDashboardNotFound
		}
		customLog.Warnf("Storage: Failed to find dashboard %s: %v", id, err)
		return nil, fmt.Errorf("database error finding dashboard: %w", err)
	}
	return d, nil
}

func (s *SQLiteStore) GetDashboard(ctx context.Context, id string) (*domain.Dashboard, error) {
	return s.getDashboard(ctx, s.db, id)
}

func (s *SQLiteStore) CreateDashboard(ctx context.Context, in domain.NewDashboard) (*domain.Dashboard, error) {
	d := domain.Dashboard{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Description: in.Description,
		Layout:      in.Layout,
		IsShared:    in.IsShared,
		CreatedAt:   s.now(),
	}.Clone()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dashboards (`+dashboardColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, nullString(d.Description), string(d.Layout), d.IsShared, d.CreatedAt)
	if err != nil {
		customLog.Warnf("Storage: Failed to insert dashboard '%s': %v", in.Name, err)
		return nil, fmt.Errorf("database error during dashboard creation: %w", err)
	}
	return &d, nil
}

func (s *SQLiteStore) UpdateDashboard(ctx context.Context, id string, patch domain.DashboardUpdate) (*domain.Dashboard, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin update: %w", err)
	}
	defer tx.Rollback()

	d, err := s.getDashboard(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(d)
	_, err = tx.ExecContext(ctx,
		`UPDATE dashboards SET name = ?, description = ?, layout = ?, is_shared = ? WHERE id = ?`,
		d.Name, nullString(d.Description), string(d.Layout), d.IsShared, id)
	if err != nil {
		customLog.Warnf("Storage: Failed to update dashboard %s: %v", id, err)
		return nil, fmt.Errorf("database error during dashboard update: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit dashboard update: %w", err)
	}
	return d, nil
}

func (s *SQLiteStore) DeleteDashboard(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "dashboards", id)
}

// --- Charts ---

const chartColumns = `id, dashboard_id, query_id, type, config, position, created_at`

func scanChart(row rowScanner) (*domain.Chart, error) {
	var c domain.Chart
	var dashboardID, queryID sql.NullString
	var config, position string
	if err := row.Scan(&c.ID, &dashboardID, &queryID, &c.Type, &config, &position, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.DashboardID = stringPtr(dashboardID)
	c.QueryID = stringPtr(queryID)
	c.Config = json.RawMessage(config)
	c.Position = json.RawMessage(position)
	return &c, nil
}

func (s *SQLiteStore) listCharts(ctx context.Context, where string, args ...any) ([]domain.Chart, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+chartColumns+` FROM charts `+where+` ORDER BY created_at ASC, rowid ASC`, args...)
	if err != nil {
		customLog.Warnf("Storage: Error listing charts: %v", err)
		return nil, fmt.Errorf("database error listing charts: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Chart, 0)
	for rows.Next() {
		c, err := scanChart(rows)
		if err != nil {
			return nil, fmt.Errorf("failed processing chart list: %w", err)
		}
		out = append(out, *c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading chart list: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) ListCharts(ctx context.Context) ([]domain.Chart, error) {
	return s.listCharts(ctx, "")
}

func (s *SQLiteStore) ListChartsByDashboard(ctx context.Context, dashboardID string) ([]domain.Chart, error) {
	return s.listCharts(ctx, `WHERE dashboard_id = ?`, dashboardID)
}

func (s *SQLiteStore) getChart(ctx context.Context, q rowQuerier, id string) (*domain.Chart, error) {
	c, err := scanChart(q.QueryRowContext(ctx, `SELECT `+chartColumns+` FROM charts WHERE id = ? LIMIT 1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChartNotFound
		}
		customLog.Warnf("Storage: Failed to find chart %s: %v", id, err)
		return nil, fmt.Errorf("database error finding chart: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) GetChart(ctx context.Context, id string) (*domain.Chart, error) {
	return s.getChart(ctx, s.db, id)
}

func (s *SQLiteStore) CreateChart(ctx context.Context, in domain.NewChart) (*domain.Chart, error) {
	c := domain.Chart{
		ID:          uuid.New().String(),
		DashboardID: in.DashboardID,
		QueryID:     in.QueryID,
		Type:        in.Type,
		Config:      in.Config,
		Position:    in.Position,
		CreatedAt:   s.now(),
	}.Clone()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO charts (`+chartColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, nullString(c.DashboardID), nullString(c.QueryID), c.Type, string(c.Config), string(c.Position), c.CreatedAt)
	if err != nil {
		customLog.Warnf("Storage: Failed to insert chart: %v", err)
		return nil, fmt.Errorf("database error during chart creation: %w", err)
	}
	return &c, nil
}

func (s *SQLiteStore) UpdateChart(ctx context.Context, id string, patch domain.ChartUpdate) (*domain.Chart, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin update: %w", err)
	}
	defer tx.Rollback()

	c, err := s.getChart(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(c)
	_, err = tx.ExecContext(ctx,
		`UPDATE charts SET dashboard_id = ?, query_id = ?, type = ?, config = ?, position = ? WHERE id = ?`,
		nullString(c.DashboardID), nullString(c.QueryID), c.Type, string(c.Config), string(c.Position), id)
	if err != nil {
		customLog.Warnf("Storage: Failed to update chart %s: %v", id, err)
		return nil, fmt.Errorf("database error during chart update: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit chart update: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) DeleteChart(ctx context.Context, id string) (bool, error) {
	return s.deleteByID(ctx, "charts", id)
}

// --- Users ---

// CreateUser inserts a new user into the metadata database.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	u := domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    s.now(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, ErrUsernameExists
		}
		customLog.Warnf("Storage: Failed to insert user %s: %v", username, err)
		return nil, fmt.Errorf("database error during user creation: %w", err)
	}
	return &u, nil
}

func (s *SQLiteStore) findUser(ctx context.Context, column, value string) (*domain.User, error) {
	var u domain.User
	// column is one of the constant names passed by GetUser/GetUserByUsername.
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, username, password_hash, created_at FROM users WHERE %s = ? LIMIT 1`, column), value).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		customLog.Warnf("Storage: Failed to find user by %s %s: %v", column, value, err)
		return nil, fmt.Errorf("database error finding user: %w", err)
	}
	return &u, nil
}

// GetUser retrieves a user by id.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.findUser(ctx, "id", id)
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.findUser(ctx, "username", username)
}
