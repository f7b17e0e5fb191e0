// api/handlers/dashboard_handler_integration_test.go
package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Annany2002/datalens-backend/api/models"
	"github.com/Annany2002/datalens-backend/internal/domain"
)

func TestDashboardLifecycle(t *testing.T) {
	env := setupTestServer(t)

	var dash domain.Dashboard
	status := env.doInto(t, http.MethodPost, "/api/dashboards", map[string]any{
		"name":        "Revenue",
		"description": "Monthly numbers",
		"layout":      map[string]any{"cols": 12},
	}, &dash)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, dash.ID)
	assert.False(t, dash.IsShared)
	assert.JSONEq(t, `{"cols":12}`, string(dash.Layout))

	var chart domain.Chart
	status = env.doInto(t, http.MethodPost, "/api/charts", `{"dashboardId":"`+dash.ID+`","type":"pie","config":{"labels":"region","values":"total"},"position":{"x":0,"y":0,"w":4,"h":3}}`, &chart)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.ChartTypePie, chart.Type)
	assert.Equal(t, `{"labels":"region","values":"total"}`, string(chart.Config))
	assert.Equal(t, `{"x":0,"y":0,"w":4,"h":3}`, string(chart.Position))

	var withCharts models.DashboardWithCharts
	status = env.doInto(t, http.MethodGet, "/api/dashboards/"+dash.ID, nil, &withCharts)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Revenue", withCharts.Name)
	require.Len(t, withCharts.Charts, 1)
	assert.Equal(t, chart.ID, withCharts.Charts[0].ID)

	var updated domain.Dashboard
	status = env.doInto(t, http.MethodPut, "/api/dashboards/"+dash.ID, map[string]any{"isShared": true}, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, updated.IsShared)
	assert.Equal(t, "Revenue", updated.Name)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "Monthly numbers", *updated.Description)

	var dashboards []domain.Dashboard
	env.doInto(t, http.MethodGet, "/api/dashboards", nil, &dashboards)
	assert.Len(t, dashboards, 1)

	status, body := env.do(t, http.MethodDelete, "/api/dashboards/"+dash.ID, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"success":true}`, string(body))

	var errBody models.ErrorResponse
	status = env.doInto(t, http.MethodGet, "/api/dashboards/"+dash.ID, nil, &errBody)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Dashboard not found", errBody.Message)

	// Charts survive their dashboard.
	var orphan domain.Chart
	status = env.doInto(t, http.MethodGet, "/api/charts/"+chart.ID, nil, &orphan)
	assert.Equal(t, http.StatusOK, status)
}

func TestChartValidationAndUpdate(t *testing.T) {
	env := setupTestServer(t)

	var errBody models.ErrorResponse
	status := env.doInto(t, http.MethodPost, "/api/charts", map[string]any{
		"type": "scatter", "config": map[string]any{}, "position": map[string]any{},
	}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	require.Len(t, errBody.Errors, 1)
	assert.Contains(t, errBody.Errors[0], "type")

	status = env.doInto(t, http.MethodPost, "/api/charts", map[string]any{"type": "bar"}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, errBody.Errors, "config is required")

	var chart domain.Chart
	status = env.doInto(t, http.MethodPost, "/api/charts", map[string]any{
		"type": "bar", "config": map[string]any{"x": "day"}, "position": map[string]any{"x": 1},
	}, &chart)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, chart.DashboardID)

	var updated domain.Chart
	status = env.doInto(t, http.MethodPut, "/api/charts/"+chart.ID, map[string]any{"type": "area"}, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.ChartTypeArea, updated.Type)
	assert.JSONEq(t, `{"x":"day"}`, string(updated.Config))

	status = env.doInto(t, http.MethodPut, "/api/charts/"+chart.ID, map[string]any{"type": "donut"}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)

	var charts []domain.Chart
	env.doInto(t, http.MethodGet, "/api/charts", nil, &charts)
	assert.Len(t, charts, 1)
	env.doInto(t, http.MethodGet, "/api/charts?dashboardId=none", nil, &charts)
	assert.Empty(t, charts)

	status, _ = env.do(t, http.MethodDelete, "/api/charts/"+chart.ID, nil)
	assert.Equal(t, http.StatusOK, status)
	status = env.doInto(t, http.MethodDelete, "/api/charts/"+chart.ID, nil, &errBody)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Chart not found", errBody.Message)
}
