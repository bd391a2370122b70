// Package llm provides the OpenAI-backed synthesizer used by the synthesize
// stage.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/rs/zerolog"

	"github.com/helixir/research-report-service/internal/config"
	"github.com/helixir/research-report-service/internal/observability"
)

// Synthesizer calls the OpenAI chat completions API to turn a prepared
// prompt into report prose. It implements the workflow.Synthesizer port.
type Synthesizer struct {
	client      openai.Client
	model       shared.ChatModel
	temperature float64
	maxTokens   int
	logger      zerolog.Logger
	metrics     *observability.Metrics
}

// NewSynthesizer creates a synthesizer from the application configuration.
func NewSynthesizer(cfg config.LLMConfig, logger zerolog.Logger, metrics *observability.Metrics) *Synthesizer {
	// The workflow engine owns retry policy, so SDK-level retries are
	// disabled to avoid compounding backoff.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &Synthesizer{
		client:      openai.NewClient(opts...),
		model:       shared.ChatModel(cfg.Model),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
		metrics:     metrics,
	}
}

// Synthesize sends the prompt and returns the completion text. API failures
// are returned as *APIError so callers can classify them.
func (s *Synthesizer) Synthesize(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(s.temperature),
	}
	if s.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(s.maxTokens))
	}

	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		s.record(observability.OutcomeError)
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		s.record(observability.OutcomeError)
		return "", &APIError{Message: "response contained no choices"}
	}
	text := resp.Choices[0].Message.Content
	if text == "" {
		s.record(observability.OutcomeError)
		return "", &APIError{Message: "response contained no content"}
	}

	s.record(observability.OutcomeSuccess)
	s.logger.Debug().
		Int("prompt_length", len(prompt)).
		Int("completion_length", len(text)).
		Msg("synthesis completed")
	return text, nil
}

// classify converts SDK errors into *APIError, preserving the HTTP status
// when one exists.
func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &APIError{StatusCode: apiErr.StatusCode, Message: apiErr.Message}
	}
	return &APIError{Message: fmt.Sprintf("request failed: %v", err)}
}

func (s *Synthesizer) record(outcome string) {
	if s.metrics != nil {
		s.metrics.LLMRequests.WithLabelValues(outcome).Inc()
	}
}
