package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name          string
		apiKey        string
		model         string
		apiURL        string
		expectedModel string
		expectedURL   string
		configured    bool
	}{
		{
			name:          "with all parameters",
			apiKey:        "sk-test",
			model:         "gpt-4o",
			apiURL:        "http://proxy.local/v1",
			expectedModel: "gpt-4o",
			expectedURL:   "http://proxy.local/v1",
			configured:    true,
		},
		{
			name:          "defaults",
			apiKey:        "sk-test",
			expectedModel: defaultModel,
			expectedURL:   defaultBaseURL,
			configured:    true,
		},
		{
			name:          "empty api key",
			expectedModel: defaultModel,
			expectedURL:   defaultBaseURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.apiKey, tt.model, tt.apiURL)
			require.NotNil(t, c)
			assert.Equal(t, tt.expectedModel, c.Model())
			assert.Equal(t, tt.expectedURL, c.baseURL)
			assert.Equal(t, tt.configured, c.IsConfigured())
		})
	}
}

func TestNewRequest_ModelFamilies(t *testing.T) {
	legacy := NewClient("k", "gpt-4o-mini", "").newRequest("hi")
	assert.Equal(t, float32(0.7), legacy.Temperature)
	assert.Equal(t, float32(1), legacy.TopP)
	assert.Equal(t, 150, legacy.MaxTokens)
	assert.Zero(t, legacy.MaxCompletionTokens)

	next := NewClient("k", "gpt-5-mini", "").newRequest("hi")
	assert.Zero(t, next.Temperature)
	assert.Zero(t, next.TopP)
	assert.Zero(t, next.MaxTokens)
	assert.Equal(t, 150, next.MaxCompletionTokens)
}

func TestComplete_LegacyModelParameters(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer server.Close()

	_, err := NewClient("k", "gpt-4o-mini", server.URL).Complete(context.Background(), "x")
	require.NoError(t, err)
	assert.InDelta(t, 0.7, got["temperature"], 1e-6)
	assert.EqualValues(t, 1, got["top_p"])
	assert.EqualValues(t, 150, got["max_tokens"])
	assert.NotContains(t, got, "max_completion_tokens")
}

func TestComplete_Success(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  2025-06-20 14:00 / Duration=30 / Dentist\n"}}]}`))
	}))
	defer server.Close()

	c := NewClient("sk-test", "gpt-5", server.URL)
	out, err := c.Complete(context.Background(), "create an event")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-20 14:00 / Duration=30 / Dentist", out)

	assert.Equal(t, "gpt-5", got["model"])
	assert.EqualValues(t, 150, got["max_completion_tokens"])
	assert.NotContains(t, got, "temperature")
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "create an event", msgs[0].(map[string]any)["content"])
}

func TestComplete_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{
			name:    "embedded error object",
			status:  http.StatusUnauthorized,
			body:    `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`,
			wantErr: "HTTP 401: Incorrect API key provided (type: invalid_request_error)",
		},
		{
			name:    "raw body fallback",
			status:  http.StatusBadGateway,
			body:    "upstream unavailable",
			wantErr: "HTTP 502: upstream unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient("k", "", server.URL).Complete(context.Background(), "x")
			require.Error(t, err)
			assert.EqualError(t, err, tt.wantErr)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
		})
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	_, err := NewClient("k", "", server.URL).Complete(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestComplete_CanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"x"}}]}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient("k", "", server.URL).Complete(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
