// api/models/dashboard_models.go
package models

import (
	"encoding/json"

	"github.com/Annany2002/datalens-backend/internal/domain"
)

// --- Dashboard Request/Response Structs ---

type CreateDashboardRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description *string         `json:"description"`
	Layout      json.RawMessage `json:"layout" binding:"required"`
	IsShared    bool            `json:"isShared"`
}

type UpdateDashboardRequest struct {
	Name        *string         `json:"name" binding:"omitempty,min=1"`
	Description *string         `json:"description"`
	Layout      json.RawMessage `json:"layout"`
	IsShared    *bool           `json:"isShared"`
}

// DashboardWithCharts is a dashboard flattened together with its charts
type DashboardWithCharts struct {
	domain.Dashboard
	Charts []domain.Chart `json:"charts"`
}

// --- Chart Request Structs ---

type CreateChartRequest struct {
	DashboardID *string         `json:"dashboardId"`
	QueryID     *string         `json:"queryId"`
	Type        string          `json:"type" binding:"required,charttype"`
	Config      json.RawMessage `json:"config" binding:"required"`
	Position    json.RawMessage `json:"position" binding:"required"`
}

type UpdateChartRequest struct {
	DashboardID *string         `json:"dashboardId"`
	QueryID     *string         `json:"queryId"`
	Type        *string         `json:"type" binding:"omitempty,charttype"`
	Config      json.RawMessage `json:"config"`
	Position    json.RawMessage `json:"position"`
}

// SuccessResponse is returned by delete endpoints
type SuccessResponse struct {
	Success bool `json:"success"`
}
