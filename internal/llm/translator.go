// internal/llm/translator.go
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const translateSystemPrompt = "You are a SQL expert that converts natural language to SQL queries. Always respond with valid JSON."

const defaultConfidence = 0.5

// Translation is the model's answer to a natural language question.
type Translation struct {
	SQL         string   `json:"sql"`
	Explanation string   `json:"explanation"`
	Confidence  float64  `json:"confidence"`
	Suggestions []string `json:"suggestions"`
}

type translationReply struct {
	SQL         string   `json:"sql"`
	Explanation string   `json:"explanation"`
	Confidence  *float64 `json:"confidence"`
	Suggestions []string `json:"suggestions"`
}

// Translator turns questions into SQL through a Completer.
type Translator struct {
	completer Completer
}

func NewTranslator(completer Completer) *Translator {
	return &Translator{completer: completer}
}

func buildTranslatePrompt(naturalLanguage, schemaContext string) string {
	var b strings.Builder
	b.WriteString("You are an expert SQL developer. Convert the following natural language query into a valid SQL statement.\n\n")
	fmt.Fprintf(&b, "Natural Language Query: %q", naturalLanguage)
	if schemaContext != "" {
		b.WriteString("\n\nDatabase Schema:\n")
		b.WriteString(schemaContext)
	}
	b.WriteString(`

Please respond with a JSON object containing:
- sql: The SQL query as a string
- explanation: A brief explanation of what the query does
- confidence: A number between 0-1 indicating your confidence in the translation
- suggestions: Optional array of alternative query suggestions

Only use tables and columns from the schema when one is given. Prefer read-only statements.`)
	return b.String()
}

// Translate asks the model for SQL answering naturalLanguage. schemaContext
// is optional. Confidence is always within [0,1] and Suggestions is never nil.
func (t *Translator) Translate(ctx context.Context, naturalLanguage, schemaContext string) (*Translation, error) {
	content, err := t.completer.Complete(ctx, translateSystemPrompt, buildTranslatePrompt(naturalLanguage, schemaContext))
	if err != nil {
		customLog.Warnf("LLM: Translation request failed: %v", err)
		return nil, &TranslationError{Err: err}
	}

	var reply translationReply
	if err := decodeJSONReply(content, &reply); err != nil {
		customLog.Warnf("LLM: Unparsable translation reply: %v", err)
		return nil, &TranslationError{Err: err}
	}

	confidence := defaultConfidence
	if reply.Confidence != nil {
		confidence = clamp01(*reply.Confidence)
	}
	suggestions := reply.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}
	return &Translation{
		SQL:         strings.TrimSpace(reply.SQL),
		Explanation: reply.Explanation,
		Confidence:  confidence,
		Suggestions: suggestions,
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// decodeJSONReply parses a model reply, tolerating a surrounding markdown fence.
func decodeJSONReply(content string, v any) error {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	}
	if trimmed == "" {
		trimmed = "{}"
	}
	if err := json.Unmarshal([]byte(trimmed), v); err != nil {
		return fmt.Errorf("invalid JSON in model reply: %w", err)
	}
	return nil
}
