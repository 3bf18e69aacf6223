package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyfold/tallyfold/internal/common"
)

func newTestOllamaClient(serverURL string) *ollamaClient {
	return &ollamaClient{
		baseURL:    serverURL,
		model:      "llama3.2",
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestOllamaChatCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/chat", r.URL.Path)

		var req struct {
			Model    string `json:"model"`
			Stream   bool   `json:"stream"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": "llama3.2",
			"message": map[string]string{
				"role":    "assistant",
				"content": `{"category": "groceries"}`,
			},
		})
	}))
	defer server.Close()

	client := newTestOllamaClient(server.URL)
	resp, err := client.ChatCompletion(context.Background(), "classify this")

	require.NoError(t, err)
	assert.Equal(t, `{"category": "groceries"}`, resp.Content)
	assert.Equal(t, "llama3.2", resp.Model)
}

func TestOllamaChatCompletionServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestOllamaClient(server.URL)
	_, err := client.ChatCompletion(context.Background(), "classify this")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestOllamaChatCompletionUnreachable(t *testing.T) {
	// Port 1 is never listening.
	client := newTestOllamaClient("http://127.0.0.1:1")
	_, err := client.ChatCompletion(context.Background(), "classify this")
	require.Error(t, err)
}

func TestOllamaCheckConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/version", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"version": "0.5.1"})
	}))
	defer server.Close()

	client := newTestOllamaClient(server.URL)
	assert.True(t, client.CheckConnection(context.Background()))

	server.Close()
	assert.False(t, client.CheckConnection(context.Background()))
}

func TestOllamaListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]any{
				{"name": "llama3.2"},
				{"name": "mistral"},
			},
		})
	}))
	defer server.Close()

	client := newTestOllamaClient(server.URL)
	models, err := client.ListModels(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"llama3.2", "mistral"}, models)
}

func TestOllamaListModelsError(t *testing.T) {
	client := newTestOllamaClient("http://127.0.0.1:1")
	_, err := client.ListModels(context.Background())
	require.Error(t, err)
}

func TestOllamaChatCompletionEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": "llama3.2",
			"message": map[string]string{
				"role":    "assistant",
				"content": "",
			},
		})
	}))
	defer server.Close()

	client := newTestOllamaClient(server.URL)
	_, err := client.ChatCompletion(context.Background(), "classify this")

	assert.ErrorIs(t, err, common.ErrEmptyResponse)
}

func TestNewClientProviders(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		config  Config
	}{
		{
			name:   "default provider is ollama",
			config: Config{},
		},
		{
			name:   "explicit ollama",
			config: Config{Provider: "ollama", Host: "localhost", Port: 11434},
		},
		{
			name:   "openai with key",
			config: Config{Provider: "openai", APIKey: "test-key"},
		},
		{
			name:    "openai without key",
			config:  Config{Provider: "openai"},
			wantErr: common.ErrMissingConfig,
		},
		{
			name:   "anthropic with key",
			config: Config{Provider: "anthropic", APIKey: "test-key"},
		},
		{
			name:    "anthropic without key",
			config:  Config{Provider: "anthropic"},
			wantErr: common.ErrMissingConfig,
		},
		{
			name:    "unknown provider",
			config:  Config{Provider: "bard"},
			wantErr: common.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, client)
			}
		})
	}
}
