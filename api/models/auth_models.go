// api/models/auth_models.go
package models

// --- Auth Request/Response Structs ---

// SignupRequest defines the structure for the signup request body
type SignupRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8"`
}

// SignupResponse is returned with 201 after registration
type SignupResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// LoginRequest defines the structure for the login request body
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse defines the structure for the login response body
type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}
