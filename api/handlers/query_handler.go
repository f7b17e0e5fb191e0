// api/handlers/query_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/datalens-backend/api/models"
	"github.com/Annany2002/datalens-backend/internal/core"
	"github.com/Annany2002/datalens-backend/internal/dbaccess"
	"github.com/Annany2002/datalens-backend/internal/domain"
	"github.com/Annany2002/datalens-backend/internal/llm"
	"github.com/Annany2002/datalens-backend/internal/storage"
)

// SQLTranslator turns a question into SQL.
type SQLTranslator interface {
	Translate(ctx context.Context, naturalLanguage, schemaContext string) (*llm.Translation, error)
}

// SQLValidator reviews SQL before it runs.
type SQLValidator interface {
	Validate(ctx context.Context, sql string) (*llm.Validation, error)
}

// QueryHandler serves the ask, execute and history endpoints.
type QueryHandler struct {
	Store      storage.Store
	DBAccess   *dbaccess.Service
	Translator SQLTranslator
	Validator  SQLValidator
	now        func() time.Time
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(store storage.Store, dbAccess *dbaccess.Service, translator SQLTranslator, validator SQLValidator) *QueryHandler {
	return &QueryHandler{
		Store:      store,
		DBAccess:   dbAccess,
		Translator: translator,
		Validator:  validator,
		now:        time.Now,
	}
}

// ListQueries returns every query newest first, optionally only those of one database.
func (h *QueryHandler) ListQueries(c *gin.Context) {
	var (
		queries []domain.Query
		err     error
	)
	if databaseID := c.Query("databaseId"); databaseID != "" {
		queries, err = h.Store.ListQueriesByDatabase(c.Request.Context(), databaseID)
	} else {
		queries, err = h.Store.ListQueries(c.Request.Context())
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, queries)
}

func (h *QueryHandler) ListSavedQueries(c *gin.Context) {
	queries, err := h.Store.ListSavedQueries(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, queries)
}

func (h *QueryHandler) ListRecentQueries(c *gin.Context) {
	limit := core.ParseRecentLimit(c.Request.URL.Query())
	queries, err := h.Store.ListRecentQueries(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, queries)
}

func (h *QueryHandler) GetQuery(c *gin.Context) {
	query, err := h.Store.GetQuery(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, query)
}

func (h *QueryHandler) DeleteQuery(c *gin.Context) {
	existed, err := h.Store.DeleteQuery(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !existed {
		_ = c.Error(storage.ErrQueryNotFound)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

// Translate asks the model for SQL. When databaseId names a known database its
// schema is sent along; an unknown id or unreachable database only drops the context.
func (h *QueryHandler) Translate(c *gin.Context) {
	var req models.TranslateRequest
	if !bindJSON(c, &req, "Natural language query is required") {
		return
	}
	ctx := c.Request.Context()

	schemaContext := ""
	if req.DatabaseID != "" {
		db, err := h.Store.GetDatabase(ctx, req.DatabaseID)
		switch {
		case err == nil:
			schemaContext, err = h.DBAccess.SchemaContext(ctx, db)
			if err != nil {
				customLog.Warnf("Handler: Translating without schema of database %s: %v", db.ID, err)
				schemaContext = ""
			}
		case errors.Is(err, storage.ErrDatabaseNotFound):
			customLog.Printf("Handler: Translate ignoring unknown database %s", req.DatabaseID)
		default:
			_ = c.Error(err)
			return
		}
	}

	result, err := h.Translator.Translate(ctx, req.NaturalLanguage, schemaContext)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Execute reviews, runs and records a statement. Nothing is recorded unless
// the statement ran.
func (h *QueryHandler) Execute(c *gin.Context) {
	var req models.ExecuteRequest
	if !bindJSON(c, &req, "SQL query and database ID are required") {
		return
	}
	ctx := c.Request.Context()

	db, err := h.Store.GetDatabase(ctx, req.DatabaseID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	validation, err := h.Validator.Validate(ctx, req.SQL)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !validation.IsValid {
		customLog.Printf("Handler: Refusing SQL judged invalid for database %s", db.ID)
		_ = c.Error(&models.RequestError{Message: models.ErrInvalidSQL.Error(), Errors: validation.Errors, Err: models.ErrInvalidSQL})
		return
	}

	result, err := h.DBAccess.ExecuteQuery(ctx, db, req.SQL)
	if err != nil {
		_ = c.Error(err)
		return
	}

	snapshot, err := json.Marshal(result.Rows)
	if err != nil {
		_ = c.Error(fmt.Errorf("failed to snapshot results: %w", err))
		return
	}

	query, err := h.Store.CreateQuery(ctx, domain.NewQuery{
		NaturalLanguage: req.NaturalLanguage,
		SQLQuery:        req.SQL,
		DatabaseID:      db.ID,
		Results:         snapshot,
		ExecutionTime:   result.ExecutionTime,
		RowCount:        result.RowCount,
		IsSaved:         req.Save,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.ExecuteResponse{Query: query, Result: result, Validation: validation})
}

// SaveQuery marks a query as saved, naming it after the current time when no
// name is given.
func (h *QueryHandler) SaveQuery(c *gin.Context) {
	var req models.SaveQueryRequest
	if !bindOptionalJSON(c, &req, "Invalid save request") {
		return
	}

	name := fmt.Sprintf("Saved Query %s", h.now().Format("1/2/2006, 3:04:05 PM"))
	if req.Name != nil && *req.Name != "" {
		name = *req.Name
	}
	saved := true

	query, err := h.Store.UpdateQuery(c.Request.Context(), c.Param("id"), domain.QueryUpdate{Name: &name, IsSaved: &saved})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, query)
}
