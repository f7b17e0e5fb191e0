// api/models/errors.go
package models

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidSQL = errors.New("Invalid SQL query")
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// RequestError is a client error answered with 400 and an optional detail list.
type RequestError struct {
	Message string
	Errors  []string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewBindingError wraps a body binding failure under message.
func NewBindingError(message string, err error) *RequestError {
	return &RequestError{Message: message, Errors: ValidationMessages(err), Err: err}
}

// ValidationMessages renders one message per failed field. Errors that are
// not validator errors (malformed JSON, wrong types) produce a single entry.
func ValidationMessages(err error) []string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return []string{err.Error()}
	}
	messages := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		messages = append(messages, fieldMessage(fe))
	}
	return messages
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "charttype":
		return fmt.Sprintf("%s must be one of: line bar pie area", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed on the '%s' rule", fe.Field(), fe.Tag())
	}
}
