package synth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/milldesk/milldesk/internal/config"
)

const systemPrompt = "You generate SQL only."

// AnthropicSynthesizer implements Synthesizer using the Anthropic API.
type AnthropicSynthesizer struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	logger    *slog.Logger
}

// NewAnthropicSynthesizer creates a synthesizer from the LLM config.
// An empty APIKey falls back to the ANTHROPIC_API_KEY environment variable.
func NewAnthropicSynthesizer(cfg config.LLMConfig, logger *slog.Logger) *AnthropicSynthesizer {
	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	return &AnthropicSynthesizer{
		client:    anthropic.NewClient(opts...),
		model:     anthropic.Model(cfg.Model),
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}
}

// Synthesize composes the prompt and asks the model for a Candidate.
// Temperature is pinned to zero so repeated calls with identical input tend
// toward identical output, though exact determinism is not guaranteed.
func (s *AnthropicSynthesizer) Synthesize(ctx context.Context, question, schemaText string) (*Candidate, error) {
	prompt := BuildPrompt(question, schemaText)

	start := time.Now()
	msg, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: anthropic.Float(0),
		System: []anthropic.TextBlockParam{
			{Type: "text", Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		s.logger.Error("synthesis call failed", "duration", time.Since(start), "error", err)
		return nil, fmt.Errorf("synthesis request: %w", err)
	}
	s.logger.Debug("synthesis call completed", "duration", time.Since(start), "stop_reason", msg.StopReason)

	for _, block := range msg.Content {
		if block.Type == "text" {
			return Parse(block.Text)
		}
	}
	return nil, fmt.Errorf("%w: response had no text content", ErrUnstructuredOutput)
}
