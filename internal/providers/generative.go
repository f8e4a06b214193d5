package providers

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/woo-consulting/apimeter/internal/domain/budget"
)

// GenerativeConfig configures the generative-text wrapper. BaseURL points
// at any OpenAI-compatible endpoint (Gemini's compat layer in production,
// a test server in tests). Costs are dollars per million tokens.
type GenerativeConfig struct {
	APIKey               string
	BaseURL              string
	Model                string
	InputCostPerMillion  float64
	OutputCostPerMillion float64
}

// Generative is the governed wrapper around the generative-text provider.
type Generative struct {
	client  *openai.Client
	model   string
	inRate  float64
	outRate float64
	gov     Governor
	logger  *zap.Logger
}

// NewGenerative creates the wrapper.
func NewGenerative(cfg GenerativeConfig, gov Governor, logger *zap.Logger) *Generative {
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	return &Generative{
		client:  openai.NewClientWithConfig(cc),
		model:   cfg.Model,
		inRate:  cfg.InputCostPerMillion,
		outRate: cfg.OutputCostPerMillion,
		gov:     gov,
		logger:  logger,
	}
}

// Complete sends a single-prompt chat completion, records token usage and
// cost, and returns the text — or budget.ErrExceeded when the provider is
// over budget.
func (g *Generative) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		// Mark that an attempt happened, at zero units and zero cost.
		g.gov.RecordCall(ctx, ProviderGemini, g.model, 0, 0)
		g.logger.Error("Generative completion failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	tokensIn := int64(resp.Usage.PromptTokens)
	tokensOut := int64(resp.Usage.CompletionTokens)
	cost := (float64(tokensIn)*g.inRate + float64(tokensOut)*g.outRate) / 1_000_000

	_, decision := g.gov.RecordAndEvaluate(ctx, ProviderGemini, g.model, tokensIn+tokensOut, cost)
	if decision.Blocked() {
		return "", fmt.Errorf("%w: %s", budget.ErrExceeded, strings.Join(decision.Warnings, "; "))
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrUpstream)
	}
	return resp.Choices[0].Message.Content, nil
}
