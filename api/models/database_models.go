// api/models/database_models.go
package models

// --- Database Connection Request Structs ---

// CreateDatabaseRequest registers a connection target. Type defaults to sqlite
// and IsActive to true.
type CreateDatabaseRequest struct {
	Name             string `json:"name" binding:"required"`
	Type             string `json:"type" binding:"omitempty,oneof=sqlite postgres mysql"`
	ConnectionString string `json:"connectionString"`
	IsActive         *bool  `json:"isActive"`
}

// UpdateDatabaseRequest changes only the fields present in the body.
type UpdateDatabaseRequest struct {
	Name             *string `json:"name" binding:"omitempty,min=1"`
	Type             *string `json:"type" binding:"omitempty,oneof=sqlite postgres mysql"`
	ConnectionString *string `json:"connectionString"`
	IsActive         *bool   `json:"isActive"`
}

// TestConnectionResponse reports the outcome of a connectivity check
type TestConnectionResponse struct {
	Connected bool `json:"connected"`
}
