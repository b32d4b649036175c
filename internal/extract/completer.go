package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"

	"dealtrack-engine/internal/config"
)

// Completer is the text-understanding service contract: one prompt in, one
// text completion out. Tests substitute a fake.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// AnthropicCompleter calls the Anthropic API through llmkit.
type AnthropicCompleter struct {
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
}

func NewAnthropicCompleter(apiKey string, cfg config.Config) *AnthropicCompleter {
	return &AnthropicCompleter{
		apiKey:      apiKey,
		model:       cfg.Extract.Model,
		maxTokens:   cfg.Extract.MaxTokens,
		temperature: cfg.Extract.Temperature,
	}
}

func (c *AnthropicCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	// llmkit has no context plumbing; honor cancellation at the boundary.
	if err := ctx.Err(); err != nil {
		return "", err
	}

	settings := types.RequestSettings{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
	resp, err := anthropic.PromptWithSettings("", prompt, "", c.apiKey, settings)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", errors.New("empty completion response")
	}
	return resp.Content[0].Text, nil
}
