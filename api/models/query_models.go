// api/models/query_models.go
package models

import (
	"github.com/Annany2002/datalens-backend/internal/dbaccess"
	"github.com/Annany2002/datalens-backend/internal/domain"
	"github.com/Annany2002/datalens-backend/internal/llm"
)

// TranslateRequest asks for SQL. DatabaseID is optional and only adds schema context.
type TranslateRequest struct {
	NaturalLanguage string `json:"naturalLanguage" binding:"required"`
	DatabaseID      string `json:"databaseId"`
}

// ExecuteRequest runs SQL against a registered database
type ExecuteRequest struct {
	SQL             string `json:"sql" binding:"required"`
	DatabaseID      string `json:"databaseId" binding:"required"`
	NaturalLanguage string `json:"naturalLanguage"`
	Save            bool   `json:"save"`
}

// ExecuteResponse bundles the persisted query with the live result
type ExecuteResponse struct {
	Query      *domain.Query         `json:"query"`
	Result     *dbaccess.QueryResult `json:"result"`
	Validation *llm.Validation       `json:"validation"`
}

// SaveQueryRequest is optional; an empty body saves under a generated name.
type SaveQueryRequest struct {
	Name *string `json:"name"`
}
