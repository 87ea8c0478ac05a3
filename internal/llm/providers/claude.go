package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"jobscout/internal/config"
	"jobscout/internal/llm/resilience"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
)

// ClaudeProvider generates selector answers with Anthropic's Messages API
type ClaudeProvider struct {
	client      anthropic.Client
	apiKey      string
	maxTokens   int64
	temperature float64
	healthModel string
	logger      types.Logger
}

// NewClaudeProvider creates a new Claude provider instance
func NewClaudeProvider(cfg *config.Config) *ClaudeProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.LLM.APIKey),
		// retries are owned by the fallback client
		option.WithMaxRetries(0),
	}
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.LLM.BaseURL))
	}
	if cfg.LLM.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.LLM.Timeout))
	}

	healthModel := ""
	if len(cfg.LLM.Models) > 0 {
		healthModel = cfg.LLM.Models[0].Name
	}

	return &ClaudeProvider{
		client:      anthropic.NewClient(opts...),
		apiKey:      cfg.LLM.APIKey,
		maxTokens:   int64(cfg.LLM.MaxTokens),
		temperature: cfg.LLM.Temperature,
		healthModel: healthModel,
		logger:      logging.GetGlobalLogger(),
	}
}

// Generate sends the instruction and the markup as two text blocks of one
// user message and returns the concatenated text of the answer
func (cp *ClaudeProvider) Generate(ctx context.Context, model, prompt, markup string) (string, error) {
	blocks := []anthropic.ContentBlockParamUnion{{
		OfText: &anthropic.TextBlockParam{Text: prompt},
	}}
	if markup != "" {
		blocks = append(blocks, anthropic.ContentBlockParamUnion{
			OfText: &anthropic.TextBlockParam{Text: markup},
		})
	}

	response, err := cp.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   cp.maxTokens,
		Temperature: anthropic.Float(cp.temperature),
		Messages: []anthropic.MessageParam{{
			Content: blocks,
			Role:    anthropic.MessageParamRoleUser,
		}},
	})
	if err != nil {
		return "", convertClaudeError(err)
	}

	var text strings.Builder
	for _, content := range response.Content {
		if content.Type == "text" {
			text.WriteString(content.AsText().Text)
		}
	}

	cp.logger.Debug("Claude response received", map[string]interface{}{
		"model":         model,
		"response_size": text.Len(),
		"stop_reason":   string(response.StopReason),
	})
	return text.String(), nil
}

// convertClaudeError lifts the SDK's status code into a resilience.APIError
func convertClaudeError(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return &resilience.APIError{
			StatusCode: apierr.StatusCode,
			Message:    apierr.Error(),
			Err:        err,
		}
	}
	return fmt.Errorf("failed to call Claude API: %w", err)
}

// IsHealthy checks if the Claude provider is healthy and available
func (cp *ClaudeProvider) IsHealthy(ctx context.Context) error {
	if cp.apiKey == "" {
		return fmt.Errorf("claude API key not configured, set LLM_API_KEY or ANTHROPIC_API_KEY")
	}

	_, err := cp.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(cp.healthModel),
		MaxTokens: 16,
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: "Hello"},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
	})
	if err != nil {
		return fmt.Errorf("claude API health check failed: %w", convertClaudeError(err))
	}
	return nil
}

func (cp *ClaudeProvider) Name() string {
	return "claude"
}
