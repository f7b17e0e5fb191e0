// internal/domain/models.go
package domain

import (
	"encoding/json"
	"time"
)

// Database connection types.
const (
	DatabaseTypeSQLite   = "sqlite"
	DatabaseTypePostgres = "postgres"
	DatabaseTypeMySQL    = "mysql"
)

// Chart visualization kinds.
const (
	ChartTypeLine = "line"
	ChartTypeBar  = "bar"
	ChartTypePie  = "pie"
	ChartTypeArea = "area"
)

// IsValidChartType reports whether t is one of the four supported chart kinds.
func IsValidChartType(t string) bool {
	switch t {
	case ChartTypeLine, ChartTypeBar, ChartTypePie, ChartTypeArea:
		return true
	}
	return false
}

// Database is a registered connection target.
type Database struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Type             string    `json:"type"`
	ConnectionString string    `json:"connectionString"`
	IsActive         bool      `json:"isActive"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Query is one executed statement with a snapshot of its result.
// DatabaseID is a weak reference; the database may since have been deleted.
type Query struct {
	ID              string          `json:"id"`
	Name            *string         `json:"name"`
	NaturalLanguage string          `json:"naturalLanguage"`
	SQLQuery        string          `json:"sqlQuery"`
	DatabaseID      string          `json:"databaseId"`
	Results         json.RawMessage `json:"results"`
	ExecutionTime   int64           `json:"executionTime"`
	RowCount        int64           `json:"rowCount"`
	IsSaved         bool            `json:"isSaved"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Dashboard groups charts under an opaque layout.
type Dashboard struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Layout      json.RawMessage `json:"layout"`
	IsShared    bool            `json:"isShared"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Chart is a visualization of a query. Config and Position are passed through untouched.
type Chart struct {
	ID          string          `json:"id"`
	DashboardID *string         `json:"dashboardId"`
	QueryID     *string         `json:"queryId"`
	Type        string          `json:"type"`
	Config      json.RawMessage `json:"config"`
	Position    json.RawMessage `json:"position"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// User defines the structure for user data in the store
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// --- Create inputs (no id or timestamp: the store assigns both) ---

type NewDatabase struct {
	Name             string
	Type             string
	ConnectionString string
	IsActive         bool
}

type NewQuery struct {
	Name            *string
	NaturalLanguage string
	SQLQuery        string
	DatabaseID      string
	Results         json.RawMessage
	ExecutionTime   int64
	RowCount        int64
	IsSaved         bool
}

type NewDashboard struct {
	Name        string
	Description *string
	Layout      json.RawMessage
	IsShared    bool
}

type NewChart struct {
	DashboardID *string
	QueryID     *string
	Type        string
	Config      json.RawMessage
	Position    json.RawMessage
}

// --- Partial updates: nil fields are left untouched ---

type DatabaseUpdate struct {
	Name             *string
	Type             *string
	ConnectionString *string
	IsActive         *bool
}

type QueryUpdate struct {
	Name    *string
	IsSaved *bool
}

type DashboardUpdate struct {
	Name        *string
	Description *string
	Layout      json.RawMessage
	IsShared    *bool
}

type ChartUpdate struct {
	DashboardID *string
	QueryID     *string
	Type        *string
	Config      json.RawMessage
	Position    json.RawMessage
}

// Apply merges the provided fields over db.
func (u DatabaseUpdate) Apply(db *Database) {
	if u.Name != nil {
		db.Name = *u.Name
	}
	if u.Type != nil {
		db.Type = *u.Type
	}
	if u.ConnectionString != nil {
		db.ConnectionString = *u.ConnectionString
	}
	if u.IsActive != nil {
		db.IsActive = *u.IsActive
	}
}

// Apply merges the provided fields over q.
func (u QueryUpdate) Apply(q *Query) {
	if u.Name != nil {
		name := *u.Name
		q.Name = &name
	}
	if u.IsSaved != nil {
		q.IsSaved = *u.IsSaved
	}
}

// Apply merges the provided fields over d.
func (u DashboardUpdate) Apply(d *Dashboard) {
	if u.Name != nil {
		d.Name = *u.Name
	}
	if u.Description != nil {
		desc := *u.Description
		d.Description = &desc
	}
	if u.Layout != nil {
		d.Layout = cloneRaw(u.Layout)
	}
	if u.IsShared != nil {
		d.IsShared = *u.IsShared
	}
}

// Apply merges the provided fields over c.
func (u ChartUpdate) Apply(c *Chart) {
	if u.DashboardID != nil {
		id := *u.DashboardID
		c.DashboardID = &id
	}
	if u.QueryID != nil {
		id := *u.QueryID
		c.QueryID = &id
	}
	if u.Type != nil {
		c.Type = *u.Type
	}
	if u.Config != nil {
		c.Config = cloneRaw(u.Config)
	}
	if u.Position != nil {
		c.Position = cloneRaw(u.Position)
	}
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}

// Clone returns a copy that shares no memory with q.
func (q Query) Clone() Query {
	q.Name = cloneString(q.Name)
	q.Results = cloneRaw(q.Results)
	return q
}

// Clone returns a copy that shares no memory with d.
func (d Dashboard) Clone() Dashboard {
	d.Description = cloneString(d.Description)
	d.Layout = cloneRaw(d.Layout)
	return d
}

// Clone returns a copy that shares no memory with c.
func (c Chart) Clone() Chart {
	c.DashboardID = cloneString(c.DashboardID)
	c.QueryID = cloneString(c.QueryID)
	c.Config = cloneRaw(c.Config)
	c.Position = cloneRaw(c.Position)
	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
