// Package script turns a Bronze snapshot into the narration script that
// upgrades it to Silver: a prompt template is rendered with the harvested
// content and submitted to the text-generation service.
package script

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

// Generator produces a narration script from a rendered prompt.
type Generator interface {
	GenerateScript(ctx context.Context, prompt string) (string, error)
}

// AnthropicConfig controls the Claude-backed generator.
type AnthropicConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// AnthropicGenerator implements Generator with the Anthropic messages API.
type AnthropicGenerator struct {
	client anthropic.Client
	cfg    AnthropicConfig
	logger *zap.Logger
}

// NewAnthropicGenerator builds the generator; the API key is required.
func NewAnthropicGenerator(cfg AnthropicConfig, logger *zap.Logger) (*AnthropicGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = string(anthropic.ModelClaudeSonnet4_5)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.2
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnthropicGenerator{
		client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// GenerateScript submits the prompt and returns the narration script text.
// An empty completion is an error: the Silver tier must not be produced
// without a script.
func (g *AnthropicGenerator) GenerateScript(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(g.cfg.Model),
		MaxTokens:   int64(g.cfg.MaxTokens),
		Temperature: anthropic.Float(g.cfg.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic message call: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(out.String()) == "" {
		return "", fmt.Errorf("generation returned empty script")
	}

	g.logger.Info("generated narration script",
		zap.String("model", g.cfg.Model),
		zap.Int("script_chars", out.Len()),
	)
	return out.String(), nil
}
