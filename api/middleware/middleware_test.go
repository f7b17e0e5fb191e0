// api/middleware/middleware_test.go
package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Annany2002/datalens-backend/api/models"
	"github.com/Annany2002/datalens-backend/config"
	"github.com/Annany2002/datalens-backend/internal/auth"
	"github.com/Annany2002/datalens-backend/internal/dbaccess"
	"github.com/Annany2002/datalens-backend/internal/llm"
	"github.com/Annany2002/datalens-backend/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serveError(t *testing.T, err error) (int, models.ErrorResponse) {
	t.Helper()
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/", func(c *gin.Context) { _ = c.Error(err) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestErrorHandlerMapping(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"not found", storage.ErrDatabaseNotFound, http.StatusNotFound, "Database not found"},
		{"wrapped not found", errors.Join(errors.New("lookup"), storage.ErrChartNotFound), http.StatusNotFound, "lookup\nChart not found"},
		{"conflict", storage.ErrUsernameExists, http.StatusConflict, "username already exists"},
		{"bad credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid username or password"},
		{"expired token", auth.ErrTokenExpired, http.StatusUnauthorized, "Authentication token has expired."},
		{"database error", &dbaccess.DatabaseError{Message: "no such table: t", Code: "1"}, http.StatusInternalServerError, "no such table: t"},
		{"translation error", &llm.TranslationError{Err: errors.New("boom")}, http.StatusInternalServerError, "Failed to translate natural language to SQL: boom"},
		{"unsupported type", dbaccess.ErrUnsupportedDatabaseType, http.StatusBadRequest, "unsupported database type"},
		{"fallback", errors.New("disk full"), http.StatusInternalServerError, "disk full"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := serveError(t, tc.err)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantMsg, body.Message)
		})
	}
}

func TestErrorHandlerRequestError(t *testing.T) {
	status, body := serveError(t, &models.RequestError{
		Message: "Invalid SQL query",
		Errors:  []string{"near SELEC: syntax error"},
		Err:     models.ErrInvalidSQL,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid SQL query", body.Message)
	assert.Equal(t, []string{"near SELEC: syntax error"}, body.Errors)
}

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow("1.2.3.4"))
}

func TestRateLimitMiddlewareRejects(t *testing.T) {
	router := gin.New()
	router.Use(RateLimitMiddleware(NewRateLimiter(1, time.Minute)))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.JSONEq(t, `{"message":"Too many requests. Please wait."}`, second.Body.String())
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{JWTSecret: "secret"}
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/me", AuthMiddleware(cfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": c.GetString(ContextUserID)})
	})

	token, err := auth.GenerateJWT("user-1", "ada", "secret", time.Hour)
	require.NoError(t, err)

	testCases := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantStatus == http.StatusOK {
				assert.JSONEq(t, `{"userId":"user-1"}`, w.Body.String())
			}
		})
	}
}
