// api/handlers/auth_handler.go
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/datalens-backend/api/models"
	"github.com/Annany2002/datalens-backend/config"
	"github.com/Annany2002/datalens-backend/internal/auth"
	"github.com/Annany2002/datalens-backend/internal/logger"
	"github.com/Annany2002/datalens-backend/internal/storage"
)

var (
	customLog = logger.NewLogger()
)

// bindJSON decodes the body into req. Failures are attached as a 400 under
// message and false is returned.
func bindJSON(c *gin.Context, req any, message string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		customLog.Warnf("Handler: %s %s binding error: %v", c.Request.Method, c.FullPath(), err)
		_ = c.Error(models.NewBindingError(message, err))
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for endpoints whose body may be omitted.
func bindOptionalJSON(c *gin.Context, req any, message string) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		customLog.Warnf("Handler: %s %s binding error: %v", c.Request.Method, c.FullPath(), err)
		_ = c.Error(models.NewBindingError(message, err))
		return false
	}
	return true
}

// AuthHandler holds dependencies for authentication handlers.
type AuthHandler struct {
	Store storage.Store
	Cfg   *config.Config
}

// NewAuthHandler creates a new AuthHandler with dependencies.
func NewAuthHandler(store storage.Store, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		Store: store,
		Cfg:   cfg,
	}
}

// Signup handles user registration requests.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if !bindJSON(c, &req, "Username and password are required") {
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.Store.CreateUser(c.Request.Context(), req.Username, hashedPassword)
	if err != nil {
		customLog.Warnf("Handler: Failed to create user %s: %v", req.Username, err)
		_ = c.Error(err)
		return
	}

	customLog.Printf("Handler: Registered user '%s' (%s)", user.Username, user.ID)
	c.JSON(http.StatusCreated, models.SignupResponse{ID: user.ID, Username: user.Username})
}

// Login handles user login requests and issues JWT on success.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req, "Username and password are required") {
		return
	}

	user, err := h.Store.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			customLog.Warnf("Handler: Login failed for unknown user %s", req.Username)
			err = auth.ErrInvalidCredentials
		}
		_ = c.Error(err)
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		customLog.Warnf("Handler: Login failed for user %s: invalid password", req.Username)
		_ = c.Error(auth.ErrInvalidCredentials)
		return
	}

	tokenString, err := auth.GenerateJWT(user.ID, user.Username, h.Cfg.JWTSecret, h.Cfg.JWTExpiration)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{Message: "Logged in successfully", Token: tokenString})
}
