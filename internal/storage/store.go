// internal/storage/store.go
package storage

import (
	"context"
	"errors"

	"github.com/Annany2002/datalens-backend/internal/domain"
	"github.com/Annany2002/datalens-backend/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// Not-found errors are returned by Get, Update and the by-id lookups.
var (
	ErrDatabaseNotFound  = errors.New("Database not found")
	ErrQueryNotFound     = errors.New("Query not found")
	ErrDashboardNotFound = errors.New("Dashboard not found")
	ErrChartNotFound     = errors.New("Chart not found")
	ErrUserNotFound      = errors.New("User not found")
	ErrUsernameExists    = errors.New("username already exists")
)

// DefaultRecentLimit is used by ListRecentQueries when limit is not positive.
const DefaultRecentLimit = 10

// Store holds the four record collections plus users.
// Create assigns the id and creation timestamp. Update merges only the
// non-nil fields of the patch. Delete reports whether the record existed.
type Store interface {
	ListDatabases(ctx context.Context) ([]domain.Database, error)
	GetDatabase(ctx context.Context, id string) (*domain.Database, error)
	CreateDatabase(ctx context.Context, in domain.NewDatabase) (*domain.Database, error)
	UpdateDatabase(ctx context.Context, id string, patch domain.DatabaseUpdate) (*domain.Database, error)
	DeleteDatabase(ctx context.Context, id string) (bool, error)

	ListQueries(ctx context.Context) ([]domain.Query, error)
	GetQuery(ctx context.Context, id string) (*domain.Query, error)
	ListQueriesByDatabase(ctx context.Context, databaseID string) ([]domain.Query, error)
	ListSavedQueries(ctx context.Context) ([]domain.Query, error)
	ListRecentQueries(ctx context.Context, limit int) ([]domain.Query, error)
	CreateQuery(ctx context.Context, in domain.NewQuery) (*domain.Query, error)
	UpdateQuery(ctx context.Context, id string, patch domain.QueryUpdate) (*domain.Query, error)
	DeleteQuery(ctx context.Context, id string) (bool, error)

	ListDashboards(ctx context.Context) ([]domain.Dashboard, error)
	GetDashboard(ctx context.Context, id string) (*domain.Dashboard, error)
	CreateDashboard(ctx context.Context, in domain.NewDashboard) (*domain.Dashboard, error)
	UpdateDashboard(ctx context.Context, id string, patch domain.DashboardUpdate) (*domain.Dashboard, error)
	DeleteDashboard(ctx context.Context, id string) (bool, error)

	ListCharts(ctx context.Context) ([]domain.Chart, error)
	GetChart(ctx context.Context, id string) (*domain.Chart, error)
	ListChartsByDashboard(ctx context.Context, dashboardID string) ([]domain.Chart, error)
	CreateChart(ctx context.Context, in domain.NewChart) (*domain.Chart, error)
	UpdateChart(ctx context.Context, id string, patch domain.ChartUpdate) (*domain.Chart, error)
	DeleteChart(ctx context.Context, id string) (bool, error)

	CreateUser(ctx context.Context, username, passwordHash string) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)

	Close() error
}

// SeedDefaultDatabase registers a SQLite connection named after the file when
// the store has no databases yet. An empty path disables seeding.
func SeedDefaultDatabase(ctx context.Context, s Store, path string) error {
	if path == "" {
		return nil
	}
	existing, err := s.ListDatabases(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	db, err := s.CreateDatabase(ctx, domain.NewDatabase{
		Name:             "main.db",
		Type:             domain.DatabaseTypeSQLite,
		ConnectionString: path,
		IsActive:         true,
	})
	if err != nil {
		return err
	}
	customLog.Printf("Storage: Seeded default database '%s' -> %s (id %s)", db.Name, db.ConnectionString, db.ID)
	return nil
}
