// api/middleware/error_handler.go
package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Annany2002/datalens-backend/api/models"
	"github.com/Annany2002/datalens-backend/internal/auth"
	"github.com/Annany2002/datalens-backend/internal/dbaccess"
	"github.com/Annany2002/datalens-backend/internal/llm"
	"github.com/Annany2002/datalens-backend/internal/logger"
	"github.com/Annany2002/datalens-backend/internal/storage"
)

var (
	customLog = logger.NewLogger()
)

// ErrorHandler creates a Gin middleware for centralized error handling.
// Handlers attach errors with c.Error and return; the last one decides the reply.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		customLog.Printf("[ErrorHandler] Detected error: %v | Type: %T", err, err)

		statusCode, body := mapError(err)
		if statusCode >= http.StatusInternalServerError {
			customLog.Errorf("[ErrorHandler] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		}

		if !c.Writer.Written() {
			c.AbortWithStatusJSON(statusCode, body)
		} else {
			customLog.Warnf("[ErrorHandler] Response already written before handling error.")
		}
	}
}

func mapError(err error) (int, models.ErrorResponse) {
	var (
		requestErr     *models.RequestError
		validationErrs validator.ValidationErrors
		syntaxErr      *json.SyntaxError
		typeErr        *json.UnmarshalTypeError
		dbErr          *dbaccess.DatabaseError
		translationErr *llm.TranslationError
		reviewErr      *llm.ValidationServiceError
	)

	switch {
	case errors.As(err, &requestErr):
		return http.StatusBadRequest, models.ErrorResponse{Message: requestErr.Message, Errors: requestErr.Errors}

	case errors.As(err, &validationErrs):
		for _, fe := range validationErrs {
			customLog.Debugf("Validation Error: Field %s failed on %s", fe.Field(), fe.Tag())
		}
		return http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed", Errors: models.ValidationMessages(err)}

	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body", Errors: []string{err.Error()}}

	case errors.Is(err, storage.ErrDatabaseNotFound),
		errors.Is(err, storage.ErrQueryNotFound),
		errors.Is(err, storage.ErrDashboardNotFound),
		errors.Is(err, storage.ErrChartNotFound),
		errors.Is(err, storage.ErrUserNotFound):
		return http.StatusNotFound, models.ErrorResponse{Message: err.Error()}

	case errors.Is(err, storage.ErrUsernameExists):
		return http.StatusConflict, models.ErrorResponse{Message: err.Error()}

	case errors.Is(err, dbaccess.ErrUnsupportedDatabaseType):
		return http.StatusBadRequest, models.ErrorResponse{Message: err.Error()}

	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrTokenMissing):
		return http.StatusUnauthorized, models.ErrorResponse{Message: err.Error()}

	case errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized, models.ErrorResponse{Message: "Authentication token has expired."}

	case errors.Is(err, auth.ErrTokenMalformed),
		errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrTokenClaimsInvalid),
		errors.Is(err, auth.ErrUnexpectedSigningMethod):
		return http.StatusUnauthorized, models.ErrorResponse{Message: "Invalid or malformed authentication token."}

	case errors.As(err, &dbErr):
		return http.StatusInternalServerError, models.ErrorResponse{Message: dbErr.Message}

	case errors.As(err, &translationErr):
		return http.StatusInternalServerError, models.ErrorResponse{Message: translationErr.Error()}

	case errors.As(err, &reviewErr):
		return http.StatusInternalServerError, models.ErrorResponse{Message: reviewErr.Error()}

	default:
		return http.StatusInternalServerError, models.ErrorResponse{Message: err.Error()}
	}
}
