// api/handlers/database_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/datalens-backend/api/models"
	"github.com/Annany2002/datalens-backend/internal/core"
	"github.com/Annany2002/datalens-backend/internal/dbaccess"
	"github.com/Annany2002/datalens-backend/internal/domain"
	"github.com/Annany2002/datalens-backend/internal/storage"
)

// DatabaseHandler manages registered connections and their live schema.
type DatabaseHandler struct {
	Store    storage.Store
	DBAccess *dbaccess.Service
}

// NewDatabaseHandler creates a new DatabaseHandler.
func NewDatabaseHandler(store storage.Store, dbAccess *dbaccess.Service) *DatabaseHandler {
	return &DatabaseHandler{
		Store:    store,
		DBAccess: dbAccess,
	}
}

func (h *DatabaseHandler) ListDatabases(c *gin.Context) {
	databases, err := h.Store.ListDatabases(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, databases)
}

func (h *DatabaseHandler) CreateDatabase(c *gin.Context) {
	var req models.CreateDatabaseRequest
	if !bindJSON(c, &req, "Invalid database definition") {
		return
	}

	dbType := domain.DatabaseTypeSQLite
	if req.Type != "" {
		dbType, _ = core.NormalizeDatabaseType(req.Type)
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	db, err := h.Store.CreateDatabase(c.Request.Context(), domain.NewDatabase{
		Name:             req.Name,
		Type:             dbType,
		ConnectionString: req.ConnectionString,
		IsActive:         isActive,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	customLog.Printf("Handler: Registered %s database '%s' (%s)", db.Type, db.Name, db.ID)
	c.JSON(http.StatusOK, db)
}

func (h *DatabaseHandler) GetDatabase(c *gin.Context) {
	db, err := h.Store.GetDatabase(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, db)
}

func (h *DatabaseHandler) UpdateDatabase(c *gin.Context) {
	var req models.UpdateDatabaseRequest
	if !bindJSON(c, &req, "Invalid database update") {
		return
	}

	patch := domain.DatabaseUpdate{
		Name:             req.Name,
		ConnectionString: req.ConnectionString,
		IsActive:         req.IsActive,
	}
	if req.Type != nil {
		normalized, _ := core.NormalizeDatabaseType(*req.Type)
		patch.Type = &normalized
	}

	db, err := h.Store.UpdateDatabase(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, db)
}

// DeleteDatabase removes the registration only; queries keep their databaseId.
func (h *DatabaseHandler) DeleteDatabase(c *gin.Context) {
	id := c.Param("id")
	existed, err := h.Store.DeleteDatabase(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !existed {
		_ = c.Error(storage.ErrDatabaseNotFound)
		return
	}
	customLog.Printf("Handler: Deleted database registration %s", id)
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

func (h *DatabaseHandler) GetSchema(c *gin.Context) {
	db, err := h.Store.GetDatabase(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	schema, err := h.DBAccess.GetTableSchema(c.Request.Context(), db)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, schema)
}

func (h *DatabaseHandler) TestConnection(c *gin.Context) {
	db, err := h.Store.GetDatabase(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.TestConnectionResponse{Connected: h.DBAccess.TestConnection(c.Request.Context(), db)})
}
