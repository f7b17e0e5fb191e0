// api/handlers/database_handler_integration_test.go
package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Annany2002/datalens-backend/api/models"
	"github.com/Annany2002/datalens-backend/internal/dbaccess"
	"github.com/Annany2002/datalens-backend/internal/domain"
)

func TestDatabaseCRUD(t *testing.T) {
	env := setupTestServer(t)

	var created domain.Database
	status := env.doInto(t, http.MethodPost, "/api/databases", map[string]any{
		"name":             "warehouse",
		"connectionString": "./data/warehouse.db",
	}, &created)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.DatabaseTypeSQLite, created.Type)
	assert.True(t, created.IsActive)

	var listed []domain.Database
	env.doInto(t, http.MethodGet, "/api/databases", nil, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	var updated domain.Database
	status = env.doInto(t, http.MethodPut, "/api/databases/"+created.ID, map[string]any{"isActive": false}, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "warehouse", updated.Name)
	assert.Equal(t, "./data/warehouse.db", updated.ConnectionString)

	var fetched domain.Database
	status = env.doInto(t, http.MethodGet, "/api/databases/"+created.ID, nil, &fetched)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, fetched.IsActive)

	status, body := env.do(t, http.MethodDelete, "/api/databases/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"success":true}`, string(body))

	var errBody models.ErrorResponse
	status = env.doInto(t, http.MethodGet, "/api/databases/"+created.ID, nil, &errBody)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Database not found", errBody.Message)

	status = env.doInto(t, http.MethodDelete, "/api/databases/"+created.ID, nil, &errBody)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCreateDatabaseValidation(t *testing.T) {
	env := setupTestServer(t)

	var errBody models.ErrorResponse
	status := env.doInto(t, http.MethodPost, "/api/databases", map[string]any{"type": "sqlite"}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, errBody.Errors, "name is required")

	status = env.doInto(t, http.MethodPost, "/api/databases", map[string]any{"name": "x", "type": "oracle"}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	require.Len(t, errBody.Errors, 1)
	assert.Contains(t, errBody.Errors[0], "type")

	status = env.doInto(t, http.MethodPut, "/api/databases/missing", map[string]any{"name": "y"}, &errBody)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDatabaseSchemaAndConnectivity(t *testing.T) {
	env := setupTestServer(t)
	db := env.createSQLiteDatabase(t)

	var connected models.TestConnectionResponse
	status := env.doInto(t, http.MethodPost, "/api/databases/"+db.ID+"/test", nil, &connected)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, connected.Connected)

	var schema dbaccess.Schema
	status = env.doInto(t, http.MethodGet, "/api/databases/"+db.ID+"/schema", nil, &schema)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, schema.Tables)

	status, body := env.do(t, http.MethodPost, "/api/queries/execute", map[string]any{
		"sql":        "CREATE TABLE orders (id INTEGER PRIMARY KEY, total REAL NOT NULL, note TEXT)",
		"databaseId": db.ID,
	})
	require.Equal(t, http.StatusOK, status, string(body))

	status = env.doInto(t, http.MethodGet, "/api/databases/"+db.ID+"/schema", nil, &schema)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, schema.Tables, 1)
	orders := schema.Tables[0]
	assert.Equal(t, "orders", orders.Name)
	require.Len(t, orders.Columns, 3)
	assert.Equal(t, dbaccess.ColumnSchema{Name: "id", Type: "INTEGER", Nullable: true, PrimaryKey: true}, orders.Columns[0])
	assert.Equal(t, dbaccess.ColumnSchema{Name: "total", Type: "REAL", Nullable: false}, orders.Columns[1])
	assert.True(t, orders.Columns[2].Nullable)
}

func TestDatabaseConnectivityFailure(t *testing.T) {
	env := setupTestServer(t)

	var db domain.Database
	env.doInto(t, http.MethodPost, "/api/databases", map[string]any{
		"name": "broken", "type": "sqlite", "connectionString": "/dev/null/cannot/exist.db",
	}, &db)

	var connected models.TestConnectionResponse
	status := env.doInto(t, http.MethodPost, "/api/databases/"+db.ID+"/test", nil, &connected)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, connected.Connected)

	status = env.doInto(t, http.MethodPost, "/api/databases/missing/test", nil, &connected)
	assert.Equal(t, http.StatusNotFound, status)
}
