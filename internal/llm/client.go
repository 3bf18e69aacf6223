// Package llm provides the language model backends used for transaction
// classification. The default backend is a local Ollama server; OpenAI and
// Anthropic are supported through their official SDKs.
package llm

import (
	"context"
	"time"
)

// ChatResponse is the raw output of a chat completion call.
type ChatResponse struct {
	Content string
	Model   string
}

// Client is the contract every backend must satisfy. ChatCompletion may
// fail; the probes must not. CheckConnection reports reachability and
// ListModels returns the models the backend can serve (implementations
// return an empty slice rather than an error when the probe fails).
type Client interface {
	ChatCompletion(ctx context.Context, prompt string) (ChatResponse, error)
	CheckConnection(ctx context.Context) bool
	ListModels(ctx context.Context) ([]string, error)
}

// Config holds backend configuration shared by all providers.
type Config struct {
	Provider    string
	Host        string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Port        int
}
