// api/handlers/dashboard_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/datalens-backend/api/models"
	"github.com/Annany2002/datalens-backend/internal/domain"
	"github.com/Annany2002/datalens-backend/internal/storage"
)

// DashboardHandler serves dashboard CRUD.
type DashboardHandler struct {
	Store storage.Store
}

func NewDashboardHandler(store storage.Store) *DashboardHandler {
	return &DashboardHandler{Store: store}
}

func (h *DashboardHandler) ListDashboards(c *gin.Context) {
	dashboards, err := h.Store.ListDashboards(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dashboards)
}

func (h *DashboardHandler) CreateDashboard(c *gin.Context) {
	var req models.CreateDashboardRequest
	if !bindJSON(c, &req, "Invalid dashboard definition") {
		return
	}

	dashboard, err := h.Store.CreateDashboard(c.Request.Context(), domain.NewDashboard{
		Name:        req.Name,
		Description: req.Description,
		Layout:      req.Layout,
		IsShared:    req.IsShared,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// GetDashboard returns the dashboard with its charts inlined.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	dashboard, err := h.Store.GetDashboard(ctx, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	charts, err := h.Store.ListChartsByDashboard(ctx, dashboard.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.DashboardWithCharts{Dashboard: *dashboard, Charts: charts})
}

func (h *DashboardHandler) UpdateDashboard(c *gin.Context) {
	var req models.UpdateDashboardRequest
	if !bindJSON(c, &req, "Invalid dashboard update") {
		return
	}

	dashboard, err := h.Store.UpdateDashboard(c.Request.Context(), c.Param("id"), domain.DashboardUpdate{
		Name:        req.Name,
		Description: req.Description,
		Layout:      req.Layout,
		IsShared:    req.IsShared,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// DeleteDashboard leaves the dashboard's charts in place.
func (h *DashboardHandler) DeleteDashboard(c *gin.Context) {
	existed, err := h.Store.DeleteDashboard(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !existed {
		_ = c.Error(storage.ErrDashboardNotFound)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}
