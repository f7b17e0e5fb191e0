// internal/storage/memory_store.go
package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Annany2002/datalens-backend/internal/domain"
)

// MemoryStore keeps every record in process memory. Data is lost on restart.
type MemoryStore struct {
	mu sync.RWMutex

	// seq orders records created within the same clock tick.
	seq  map[string]uint64
	next uint64

	databases  map[string]domain.Database
	queries    map[string]domain.Query
	dashboards map[string]domain.Dashboard
	charts     map[string]domain.Chart
	users      map[string]domain.User

	now func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		seq:        make(map[string]uint64),
		databases:  make(map[string]domain.Database),
		queries:    make(map[string]domain.Query),
		dashboards: make(map[string]domain.Dashboard),
		charts:     make(map[string]domain.Chart),
		users:      make(map[string]domain.User),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// newIDLocked allocates an id and its creation sequence. Caller holds mu.
func (s *MemoryStore) newIDLocked() string {
	id := uuid.New().String()
	s.next++
	s.seq[id] = s.next
	return id
}

func (s *MemoryStore) Close() error { return nil }

// --- Databases ---

func (s *MemoryStore) ListDatabases(ctx context.Context) ([]domain.Database, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Database, 0, len(s.databases))
	for _, db := range s.databases {
		out = append(out, db)
	}
	sort.Slice(out, func(i, j int) bool { return s.seq[out[i].ID] < s.seq[out[j].ID] })
	return out, nil
}

func (s *MemoryStore) GetDatabase(ctx context.Context, id string) (*domain.Database, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	db, ok := s.databases[id]
	if !ok {
		return nil, ErrDatabaseNotFound
	}
	return &db, nil
}

func (s *MemoryStore) CreateDatabase(ctx context.Context, in domain.NewDatabase) (*domain.Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := domain.Database{
		ID:               s.newIDLocked(),
		Name:             in.Name,
		Type:             in.Type,
		ConnectionString: in.ConnectionString,
		IsActive:         in.IsActive,
		CreatedAt:        s.now(),
	}
	s.databases[db.ID] = db
	return &db, nil
}

func (s *MemoryStore) UpdateDatabase(ctx context.Context, id string, patch domain.DatabaseUpdate) (*domain.Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, ok := s.databases[id]
	if !ok {
		return nil, ErrDatabaseNotFound
	}
	patch.Apply(&db)
	s.databases[id] = db
	return &db, nil
}

func (s *MemoryStore) DeleteDatabase(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.databases[id]; !ok {
		return false, nil
	}
	delete(s.databases, id)
	delete(s.seq, id)
	return true, nil
}

// --- Queries ---

// newestFirstLocked sorts queries by creation time, newest first. Caller holds mu.
func (s *MemoryStore) newestFirstLocked(qs []domain.Query) {
	sort.Slice(qs, func(i, j int) bool {
		if !qs[i].CreatedAt.Equal(qs[j].CreatedAt) {
			return qs[i].CreatedAt.After(qs[j].CreatedAt)
		}
		return s.seq[qs[i].ID] > s.seq[qs[j].ID]
	})
}

func (s *MemoryStore) filterQueries(keep func(domain.Query) bool) []domain.Query {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Query, 0)
	for _, q := range s.queries {
		if keep(q) {
			out = append(out, q.Clone())
		}
	}
	s.newestFirstLocked(out)
	return out
}

func (s *MemoryStore) ListQueries(ctx context.Context) ([]domain.Query, error) {
	return s.filterQueries(func(domain.Query) bool { return true }), nil
}

func (s *MemoryStore) GetQuery(ctx context.Context, id string) (*domain.Query, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.queries[id]
	if !ok {
		return nil, ErrQueryNotFound
	}
	q = q.Clone()
	return &q, nil
}

func (s *MemoryStore) ListQueriesByDatabase(ctx context.Context, databaseID string) ([]domain.Query, error) {
	return s.filterQueries(func(q domain.Query) bool { return q.DatabaseID == databaseID }), nil
}

func (s *MemoryStore) ListSavedQueries(ctx context.Context) ([]domain.Query, error) {
	return s.filterQueries(func(q domain.Query) bool { return q.IsSaved }), nil
}

func (s *MemoryStore) ListRecentQueries(ctx context.Context, limit int) ([]domain.Query, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	all := s.filterQueries(func(domain.Query) bool { return true })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *MemoryStore) CreateQuery(ctx context.Context, in domain.NewQuery) (*domain.Query, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := domain.Query{
		ID:              s.newIDLocked(),
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
	s.queries[q.ID] = q
	out := q.Clone()
	return &out, nil
}

func (s *MemoryStore) UpdateQuery(ctx context.Context, id string, patch domain.QueryUpdate) (*domain.Query, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queries[id]
	if !ok {
		return nil, ErrQueryNotFound
	}
	patch.Apply(&q)
	s.queries[id] = q
	out := q.Clone()
	return &out, nil
}

func (s *MemoryStore) DeleteQuery(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.queries[id]; !ok {
		return false, nil
	}
	delete(s.queries, id)
	delete(s.seq, id)
	return true, nil
}

// --- Dashboards ---

func (s *MemoryStore) ListDashboards(ctx context.Context) ([]domain.Dashboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Dashboard, 0, len(s.dashboards))
	for _, d := range s.dashboards {
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return s.seq[out[i].ID] < s.seq[out[j].ID] })
	return out, nil
}

func (s *MemoryStore) GetDashboard(ctx context.Context, id string) (*domain.Dashboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.dashboards[id]
	if !ok {
		return nil, ErrDashboardNotFound
	}
	d = d.Clone()
	return &d, nil
}

func (s *MemoryStore) CreateDashboard(ctx context.Context, in domain.NewDashboard) (*domain.Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := domain.Dashboard{
		ID:          s.newIDLocked(),
		Name:        in.Name,
		Description: in.Description,
		Layout:      in.Layout,
		IsShared:    in.IsShared,
		CreatedAt:   s.now(),
	}.Clone()
	s.dashboards[d.ID] = d
	out := d.Clone()
	return &out, nil
}

func (s *MemoryStore) UpdateDashboard(ctx context.Context, id string, patch domain.DashboardUpdate) (*domain.Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dashboards[id]
	if !ok {
		return nil, ErrDashboardNotFound
	}
	patch.Apply(&d)
	s.dashboards[id] = d
	out := d.Clone()
	return &out, nil
}

func (s *MemoryStore) DeleteDashboard(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dashboards[id]; !ok {
		return false, nil
	}
	delete(s.dashboards, id)
	delete(s.seq, id)
	return true, nil
}

// --- Charts ---

func (s *MemoryStore) filterCharts(keep func(domain.Chart) bool) []domain.Chart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Chart, 0)
	for _, c := range s.charts {
		if keep(c) {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.seq[out[i].ID] < s.seq[out[j].ID] })
	return out
}

func (s *MemoryStore) ListCharts(ctx context.Context) ([]domain.Chart, error) {
	return s.filterCharts(func(domain.Chart) bool { return true }), nil
}

func (s *MemoryStore) GetChart(ctx context.Context, id string) (*domain.Chart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.charts[id]
	if !ok {
		return nil, ErrChartNotFound
	}
	c = c.Clone()
	return &c, nil
}

func (s *MemoryStore) ListChartsByDashboard(ctx context.Context, dashboardID string) ([]domain.Chart, error) {
	return s.filterCharts(func(c domain.Chart) bool {
		return c.DashboardID != nil && *c.DashboardID == dashboardID
	}), nil
}

func (s *MemoryStore) CreateChart(ctx context.Context, in domain.NewChart) (*domain.Chart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := domain.Chart{
		ID:          s.newIDLocked(),
		DashboardID: in.DashboardID,
		QueryID:     in.QueryID,
		Type:        in.Type,
		Config:      in.Config,
		Position:    in.Position,
		CreatedAt:   s.now(),
	}.Clone()
	s.charts[c.ID] = c
	out := c.Clone()
	return &out, nil
}

func (s *MemoryStore) UpdateChart(ctx context.Context, id string, patch domain.ChartUpdate) (*domain.Chart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.charts[id]
	if !ok {
		return nil, ErrChartNotFound
	}
	patch.Apply(&c)
	s.charts[id] = c
	out := c.Clone()
	return &out, nil
}

func (s *MemoryStore) DeleteChart(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.charts[id]; !ok {
		return false, nil
	}
	delete(s.charts, id)
	delete(s.seq, id)
	return true, nil
}

// --- Users ---

func (s *MemoryStore) CreateUser(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return nil, ErrUsernameExists
		}
	}
	u := domain.User{
		ID:           s.newIDLocked(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    s.now(),
	}
	s.users[u.ID] = u
	return &u, nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}
