// internal/llm/validator_test.go
package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateNormalizesReply(t *testing.T) {
	testCases := []struct {
		name     string
		reply    string
		wantOK   bool
		wantPerf string
		wantErrs []string
	}{
		{"valid", `{"isValid":true,"optimizations":["add an index"],"estimatedPerformance":"good"}`, true, "good", []string{}},
		{"invalid", `{"isValid":false,"errors":["near SELEC: syntax error"],"estimatedPerformance":"poor"}`, false, "poor", []string{"near SELEC: syntax error"}},
		{"missing verdict", `{"estimatedPerformance":"Excellent"}`, true, "excellent", []string{}},
		{"unknown grade", `{"isValid":true,"estimatedPerformance":"blazing"}`, true, "fair", []string{}},
		{"empty object", `{}`, true, "fair", []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeCompleter{reply: tc.reply}
			got, err := NewValidator(fake).Validate(context.Background(), "SELECT 1")
			require.NoError(t, err)
			assert.Equal(t, tc.wantOK, got.IsValid)
			assert.Equal(t, tc.wantPerf, got.EstimatedPerformance)
			assert.Equal(t, tc.wantErrs, got.Errors)
			assert.NotNil(t, got.Optimizations)

			assert.Equal(t, validateSystemPrompt, fake.systemPrompt)
			assert.Contains(t, fake.userPrompt, "SQL Query: SELECT 1")
		})
	}
}

func TestValidateFailures(t *testing.T) {
	cause := errors.New("rate limited")
	_, err := NewValidator(&fakeCompleter{err: cause}).Validate(context.Background(), "SELECT 1")
	var vErr *ValidationServiceError
	require.ErrorAs(t, err, &vErr)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Failed to validate SQL: rate limited", err.Error())

	_, err = NewValidator(&fakeCompleter{reply: "[1,2"}).Validate(context.Background(), "SELECT 1")
	require.ErrorAs(t, err, &vErr)
}
