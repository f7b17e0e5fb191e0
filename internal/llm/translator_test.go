// internal/llm/translator_test.go
package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateBuildsPromptWithSchema(t *testing.T) {
	fake := &fakeCompleter{reply: `{"sql":"SELECT COUNT(*) FROM users","explanation":"Counts users","confidence":0.92,"suggestions":["SELECT COUNT(id) FROM users"]}`}
	tr := NewTranslator(fake)

	got, err := tr.Translate(context.Background(), "count all users", `{"tables":[{"name":"users"}]}`)
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM users", got.SQL)
	assert.Equal(t, "Counts users", got.Explanation)
	assert.InDelta(t, 0.92, got.Confidence, 1e-9)
	assert.Equal(t, []string{"SELECT COUNT(id) FROM users"}, got.Suggestions)

	assert.Equal(t, translateSystemPrompt, fake.systemPrompt)
	assert.Contains(t, fake.userPrompt, `Natural Language Query: "count all users"`)
	assert.Contains(t, fake.userPrompt, "Database Schema:\n{\"tables\":[{\"name\":\"users\"}]}")
}

func TestTranslateOmitsEmptySchema(t *testing.T) {
	fake := &fakeCompleter{reply: `{"sql":"SELECT 1"}`}
	_, err := NewTranslator(fake).Translate(context.Background(), "one", "")
	require.NoError(t, err)
	assert.NotContains(t, fake.userPrompt, "Database Schema:")
}

func TestTranslateConfidence(t *testing.T) {
	testCases := []struct {
		name  string
		reply string
		want  float64
	}{
		{"above range", `{"sql":"SELECT 1","confidence":1.4}`, 1.0},
		{"below range", `{"sql":"SELECT 1","confidence":-0.2}`, 0.0},
		{"inside range", `{"sql":"SELECT 1","confidence":0.3}`, 0.3},
		{"missing", `{"sql":"SELECT 1"}`, 0.5},
		{"null", `{"sql":"SELECT 1","confidence":null}`, 0.5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewTranslator(&fakeCompleter{reply: tc.reply}).Translate(context.Background(), "q", "")
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got.Confidence, 1e-9)
			assert.NotNil(t, got.Suggestions)
		})
	}
}

func TestTranslateAcceptsFencedReply(t *testing.T) {
	fake := &fakeCompleter{reply: "```json\n{\"sql\":\"SELECT 2\"}\n```"}
	got, err := NewTranslator(fake).Translate(context.Background(), "two", "")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 2", got.SQL)
}

func TestTranslateFailures(t *testing.T) {
	cause := errors.New("upstream unavailable")
	_, err := NewTranslator(&fakeCompleter{err: cause}).Translate(context.Background(), "q", "")
	var trErr *TranslationError
	require.ErrorAs(t, err, &trErr)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Failed to translate natural language to SQL: upstream unavailable", err.Error())

	_, err = NewTranslator(&fakeCompleter{reply: "not json"}).Translate(context.Background(), "q", "")
	require.ErrorAs(t, err, &trErr)
}
