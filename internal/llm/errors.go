// internal/llm/errors.go
package llm

// TranslationError wraps any failure while turning a question into SQL.
type TranslationError struct {
	Err error
}

func (e *TranslationError) Error() string {
	return "Failed to translate natural language to SQL: " + e.Err.Error()
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}

// ValidationServiceError wraps any failure while asking for a SQL review.
type ValidationServiceError struct {
	Err error
}

func (e *ValidationServiceError) Error() string {
	return "Failed to validate SQL: " + e.Err.Error()
}

func (e *ValidationServiceError) Unwrap() error {
	return e.Err
}
