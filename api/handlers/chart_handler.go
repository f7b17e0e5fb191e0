// api/handlers/chart_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/datalens-backend/api/models"
	"github.com/Annany2002/datalens-backend/internal/domain"
	"github.com/Annany2002/datalens-backend/internal/storage"
)

// ChartHandler serves chart CRUD. Config and position are stored verbatim.
type ChartHandler struct {
	Store storage.Store
}

func NewChartHandler(store storage.Store) *ChartHandler {
	return &ChartHandler{Store: store}
}

func (h *ChartHandler) ListCharts(c *gin.Context) {
	var (
		charts []domain.Chart
		err    error
	)
	if dashboardID := c.Query("dashboardId"); dashboardID != "" {
		charts, err = h.Store.ListChartsByDashboard(c.Request.Context(), dashboardID)
	} else {
		charts, err = h.Store.ListCharts(c.Request.Context())
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, charts)
}

func (h *ChartHandler) GetChart(c *gin.Context) {
	chart, err := h.Store.GetChart(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, chart)
}

func (h *ChartHandler) CreateChart(c *gin.Context) {
	var req models.CreateChartRequest
	if !bindJSON(c, &req, "Invalid chart definition") {
		return
	}

	chart, err := h.Store.CreateChart(c.Request.Context(), domain.NewChart{
		DashboardID: req.DashboardID,
		QueryID:     req.QueryID,
		Type:        req.Type,
		Config:      req.Config,
		Position:    req.Position,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, chart)
}

func (h *ChartHandler) UpdateChart(c *gin.Context) {
	var req models.UpdateChartRequest
	if !bindJSON(c, &req, "Invalid chart update") {
		return
	}

	chart, err := h.Store.UpdateChart(c.Request.Context(), c.Param("id"), domain.ChartUpdate{
		DashboardID: req.DashboardID,
		QueryID:     req.QueryID,
		Type:        req.Type,
		Config:      req.Config,
		Position:    req.Position,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, chart)
}

func (h *ChartHandler) DeleteChart(c *gin.Context) {
	existed, err := h.Store.DeleteChart(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !existed {
		_ = c.Error(storage.ErrChartNotFound)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}
