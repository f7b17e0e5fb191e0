// internal/llm/client.go
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/Annany2002/datalens-backend/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

var (
	ErrMissingAPIKey   = errors.New("language model API key is not configured")
	ErrEmptyCompletion = errors.New("completion returned no choices")
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-5"
	temperature    = 0.1
)

// Completer sends one system+user prompt pair to a chat model and returns
// the text of the first choice.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	Temperature    float64        `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// OpenAIClient talks to an OpenAI compatible chat completions endpoint.
type OpenAIClient struct {
	http   *resty.Client
	apiKey string
	model  string
}

// NewOpenAIClient creates a client for baseURL. Empty baseURL and model fall
// back to DefaultBaseURL and DefaultModel.
func NewOpenAIClient(apiKey, baseURL, model string, timeout time.Duration) *OpenAIClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		httpClient.SetAuthToken(apiKey)
	}
	return &OpenAIClient{http: httpClient, apiKey: apiKey, model: model}
}

// Complete requests a JSON object completion at low temperature.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
		Temperature:    temperature,
	}

	var (
		result  chatResponse
		failure apiError
	)
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&failure).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}

	customLog.WithFields(logrus.Fields{
		"model":      c.model,
		"status":     resp.StatusCode(),
		"latency_ms": time.Since(start).Milliseconds(),
	}).Debug("LLM: Chat completion finished")

	if resp.IsError() {
		msg := failure.Error.Message
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return "", fmt.Errorf("completion API returned status %d: %s", resp.StatusCode(), msg)
	}
	if len(result.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return result.Choices[0].Message.Content, nil
}
