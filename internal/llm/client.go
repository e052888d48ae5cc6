// Package llm talks to an OpenAI compatible chat completion endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultBaseURL   = "https://api.openai.com/v1"
	defaultModel     = openai.GPT4oMini
	defaultMaxTokens = 150
)

// ErrEmptyCompletion is returned when the backend answers 200 without a
// choice to read.
var ErrEmptyCompletion = errors.New("empty completion")

// APIError is a non-200 answer from the backend.
type APIError struct {
	StatusCode int
	Message    string
	Type       string
}

func (e *APIError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s (type: %s)", e.StatusCode, e.Message, e.Type)
}

// Client sends single-turn prompts and returns the completion text.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	api     *openai.Client
}

// NewClient creates a client. Empty model and baseURL fall back to defaults.
// baseURL is the API root, for example "https://api.openai.com/v1".
func NewClient(apiKey, model, baseURL string) *Client {
	if model == "" {
		model = defaultModel
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = &http.Client{
		Timeout: 60 * time.Second,
	}

	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		api:     openai.NewClientWithConfig(cfg),
	}
}

// IsConfigured returns true if the client has an API key
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// Model returns the model name sent with every request.
func (c *Client) Model() string {
	return c.model
}

// usesCompletionTokens reports whether model belongs to the family that
// rejects temperature and max_tokens.
func usesCompletionTokens(model string) bool {
	return strings.HasPrefix(strings.ToLower(model), "gpt-5")
}

func (c *Client) newRequest(prompt string) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if usesCompletionTokens(c.model) {
		req.MaxCompletionTokens = defaultMaxTokens
		return req
	}

	req.Temperature = 0.7
	req.TopP = 1
	req.MaxTokens = defaultMaxTokens
	return req
}

// Complete sends prompt as a single user message and returns the first
// choice's content.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, c.newRequest(prompt))
	if err != nil {
		return "", translateError(err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// translateError prefers the embedded error object and falls back to the
// raw body. Transport errors pass through unchanged.
func translateError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &APIError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message, Type: apiErr.Type}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := strings.TrimSpace(string(reqErr.Body))
		if msg == "" && reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &APIError{StatusCode: reqErr.HTTPStatusCode, Message: msg}
	}
	return fmt.Errorf("chat completion failed: %w", err)
}
