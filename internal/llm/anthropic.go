package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/tallyfold/tallyfold/internal/common"
)

// anthropicClient implements Client on top of the Anthropic Messages API.
type anthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

func newAnthropicClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: Anthropic API key", common.ErrMissingConfig)
	}

	model := cfg.Model
	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_5)
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 512
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return &anthropicClient{
		client:    &client,
		model:     model,
		maxTokens: int64(maxTokens),
	}, nil
}

func (c *anthropicClient) ChatCompletion(ctx context.Context, prompt string) (ChatResponse, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return ChatResponse{}, fmt.Errorf("anthropic API call: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}
	if sb.Len() == 0 {
		return ChatResponse{}, fmt.Errorf("anthropic: %w", common.ErrEmptyResponse)
	}

	return ChatResponse{
		Content: sb.String(),
		Model:   string(message.Model),
	}, nil
}

func (c *anthropicClient) CheckConnection(ctx context.Context) bool {
	_, err := c.client.Models.List(ctx, anthropic.ModelListParams{})
	return err == nil
}

func (c *anthropicClient) ListModels(ctx context.Context) ([]string, error) {
	page, err := c.client.Models.List(ctx, anthropic.ModelListParams{})
	if err != nil {
		return nil, fmt.Errorf("anthropic list models: %w", err)
	}

	names := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		names = append(names, m.ID)
	}
	return names, nil
}
