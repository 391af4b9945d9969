// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"context"
	"fmt"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/openai"

	"github.com/pdiddy/desk-researcher/pkg/types"
)

// Groq serves an OpenAI-compatible chat completions API.
const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama-3.3-70b-versatile"
	DefaultMaxTokens   = 1200
	DefaultTemperature = 0.3
)

var _ Completer = (*FantasyCompleter)(nil)

// FantasyCompleter sends prompts through a fantasy language model.
type FantasyCompleter struct {
	model       fantasy.LanguageModel
	maxTokens   int64
	temperature float64
}

// NewFantasyCompleter connects to the OpenAI-compatible endpoint in cfg.
func NewFantasyCompleter(ctx context.Context, cfg types.AIConfig) (*FantasyCompleter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("completion API key is not set")
	}
	switch cfg.Provider {
	case "", "openai", "groq":
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultModel
	}

	provider, err := openai.New(
		openai.WithAPIKey(cfg.APIKey),
		openai.WithBaseURL(baseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}
	model, err := provider.LanguageModel(ctx, modelName)
	if err != nil {
		return nil, fmt.Errorf("get language model: %w", err)
	}

	c := &FantasyCompleter{model: model, maxTokens: cfg.MaxTokens, temperature: cfg.Temperature}
	if c.maxTokens <= 0 {
		c.maxTokens = DefaultMaxTokens
	}
	if c.temperature < 0 {
		c.temperature = DefaultTemperature
	}
	return c, nil
}

// Complete runs a single-turn generation.
func (c *FantasyCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	agent := fantasy.NewAgent(c.model)

	maxTokens, temperature := c.maxTokens, c.temperature
	result, err := agent.Generate(ctx, fantasy.AgentCall{
		Prompt:          prompt,
		MaxOutputTokens: &maxTokens,
		Temperature:     &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return result.Response.Content.Text(), nil
}
