// internal/llm/validator.go
package llm

import (
	"context"

	"github.com/Annany2002/datalens-backend/internal/core"
)

const validateSystemPrompt = "You are a SQL optimization expert. Analyze queries for validity and performance. Always respond with valid JSON."

// Validation is the model's opinion of a statement. It is advisory: only an
// explicit IsValid=false blocks execution.
type Validation struct {
	IsValid              bool     `json:"isValid"`
	Errors               []string `json:"errors"`
	Optimizations        []string `json:"optimizations"`
	EstimatedPerformance string   `json:"estimatedPerformance"`
}

type validationReply struct {
	IsValid              *bool    `json:"isValid"`
	Errors               []string `json:"errors"`
	Optimizations        []string `json:"optimizations"`
	EstimatedPerformance string   `json:"estimatedPerformance"`
}

// Validator reviews SQL through a Completer.
type Validator struct {
	completer Completer
}

func NewValidator(completer Completer) *Validator {
	return &Validator{completer: completer}
}

func buildValidatePrompt(sql string) string {
	return `Analyze the following SQL query for validity and optimization opportunities:

SQL Query: ` + sql + `

Please respond with a JSON object containing:
- isValid: boolean indicating if the SQL syntax is valid
- errors: array of error descriptions if invalid
- optimizations: array of optimization suggestions
- estimatedPerformance: string indicating performance estimate ('excellent', 'good', 'fair', or 'poor')`
}

// Validate asks the model to review sql.
func (v *Validator) Validate(ctx context.Context, sql string) (*Validation, error) {
	content, err := v.completer.Complete(ctx, validateSystemPrompt, buildValidatePrompt(sql))
	if err != nil {
		customLog.Warnf("LLM: Validation request failed: %v", err)
		return nil, &ValidationServiceError{Err: err}
	}

	var reply validationReply
	if err := decodeJSONReply(content, &reply); err != nil {
		customLog.Warnf("LLM: Unparsable validation reply: %v", err)
		return nil, &ValidationServiceError{Err: err}
	}

	result := &Validation{
		IsValid:              reply.IsValid == nil || *reply.IsValid,
		Errors:               reply.Errors,
		Optimizations:        reply.Optimizations,
		EstimatedPerformance: core.NormalizePerformance(reply.EstimatedPerformance),
	}
	if result.Errors == nil {
		result.Errors = []string{}
	}
	if result.Optimizations == nil {
		result.Optimizations = []string{}
	}
	return result, nil
}
