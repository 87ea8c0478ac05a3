package resilience

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"jobscout/internal/clock"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
)

// Generator issues a single generation call against one named model
type Generator interface {
	Generate(ctx context.Context, model, prompt, markup string) (string, error)
}

// ModelDescriptor is one rung of the model hierarchy
type ModelDescriptor struct {
	Name         string `json:"name"`
	PriorityRank int    `json:"priority_rank"`
	Description  string `json:"description"`
}

// ClientConfig configures a FallbackClient. Nil collaborators get
// process-local defaults.
type ClientConfig struct {
	Models     []ModelDescriptor
	MaxRetries int
	RetryDelay time.Duration
	Cooldown   time.Duration

	Limiter   Limiter
	Cooldowns *CooldownTracker
	Clock     clock.Clock
	Logger    types.Logger
}

// Resolution is a successfully parsed model answer
type Resolution struct {
	Object   map[string]interface{}
	Model    string
	Attempts int
}

// FallbackClient walks the model hierarchy until one model returns a
// parsable JSON object
type FallbackClient struct {
	generator  Generator
	models     []ModelDescriptor
	maxRetries int
	retryDelay time.Duration
	cooldown   time.Duration
	limiter    Limiter
	cooldowns  *CooldownTracker
	clock      clock.Clock
	logger     types.Logger
}

func NewFallbackClient(gen Generator, cfg ClientConfig) *FallbackClient {
	c := &FallbackClient{
		generator:  gen,
		models:     append([]ModelDescriptor(nil), cfg.Models...),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		cooldown:   cfg.Cooldown,
		limiter:    cfg.Limiter,
		cooldowns:  cfg.Cooldowns,
		clock:      cfg.Clock,
		logger:     cfg.Logger,
	}
	if c.maxRetries < 1 {
		c.maxRetries = 3
	}
	if c.cooldown <= 0 {
		c.cooldown = DefaultCooldown
	}
	if c.clock == nil {
		c.clock = clock.Real()
	}
	if c.limiter == nil {
		c.limiter = NewRateLimiter(15, time.Second, c.clock)
	}
	if c.cooldowns == nil {
		c.cooldowns = NewCooldownTracker(c.clock)
	}
	if c.logger == nil {
		c.logger = logging.GetGlobalLogger()
	}
	for i := range c.models {
		c.models[i].PriorityRank = i + 1
	}
	return c
}

// Models returns the hierarchy in priority order
func (c *FallbackClient) Models() []ModelDescriptor {
	return append([]ModelDescriptor(nil), c.models...)
}

// Resolve sends prompt and markup down the hierarchy. A quota failure cools
// the model and moves on without sleeping; transient and malformed failures
// are retried on the same model after the fixed delay.
func (c *FallbackClient) Resolve(ctx context.Context, prompt, markup string) (*Resolution, error) {
	var failures []error

	for _, model := range c.models {
		if c.cooldowns.IsCooled(model.Name, c.cooldown) {
			c.logger.Info("Skipping model in cooldown", map[string]interface{}{
				"model":     model.Name,
				"remaining": c.cooldowns.Remaining(model.Name, c.cooldown).String(),
			})
			failures = append(failures, fmt.Errorf("model %s skipped: cooling down", model.Name))
			continue
		}

		res, err := c.tryModel(ctx, model, prompt, markup)
		if err == nil {
			return res, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		failures = append(failures, err)
	}

	c.logger.Error("All models exhausted", map[string]interface{}{
		"models": len(c.models),
		"error":  errors.Join(failures...).Error(),
	})
	return nil, fmt.Errorf("%w: %w", ErrAllModelsExhausted, errors.Join(failures...))
}

func (c *FallbackClient) tryModel(ctx context.Context, model ModelDescriptor, prompt, markup string) (*Resolution, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, err
		}

		obj, err := c.attempt(ctx, model.Name, prompt, markup)
		if err == nil {
			c.logger.Info("Model answered", map[string]interface{}{
				"model":   model.Name,
				"attempt": attempt,
			})
			return &Resolution{Object: obj, Model: model.Name, Attempts: attempt}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		kind := Classify(err)
		fields := map[string]interface{}{
			"model":   model.Name,
			"attempt": attempt,
			"max":     c.maxRetries,
			"kind":    kind.String(),
			"error":   err.Error(),
		}

		if kind == KindQuota {
			c.cooldowns.MarkCooled(model.Name)
			c.logger.Warn("Model quota exhausted, switching to next model", fields)
			return nil, &QuotaExceededError{Model: model.Name, Err: err}
		}

		c.logger.Warn("Model attempt failed", fields)
		lastErr = err
		if attempt < c.maxRetries {
			if err := c.clock.Sleep(ctx, c.retryDelay); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("model %s failed after %d attempts: %w", model.Name, c.maxRetries, lastErr)
}

func (c *FallbackClient) attempt(ctx context.Context, model, prompt, markup string) (map[string]interface{}, error) {
	text, err := c.generator.Generate(ctx, model, prompt, markup)
	if err != nil {
		var quota *QuotaExceededError
		if errors.As(err, &quota) {
			return nil, err
		}
		return nil, &TransientCallError{Model: model, Err: err}
	}
	obj, err := ParseObject(text)
	if err != nil {
		return nil, &MalformedResponseError{Model: model, Raw: text, Err: err}
	}
	return obj, nil
}

// ParseObject validates and decodes a model response into a JSON object.
// Code fences around the object are tolerated.
func ParseObject(text string) (map[string]interface{}, error) {
	cleaned := StripCodeFence(text)
	if cleaned == "" {
		return nil, errors.New("empty response")
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	if obj == nil {
		return nil, errors.New("response is JSON null")
	}
	return obj, nil
}

// StripCodeFence removes a leading ``` or ```json line and a trailing ```
func StripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimPrefix(content, "json")
		content = strings.TrimPrefix(content, "JSON")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}
	return strings.TrimSpace(content)
}

// CooledModel is a model currently excluded from selection
type CooledModel struct {
	Name             string  `json:"name"`
	RemainingSeconds float64 `json:"remaining_seconds"`
}

// Status describes the fallback configuration and live model availability
type Status struct {
	ModelHierarchy       []ModelDescriptor `json:"model_hierarchy"`
	MaxRetryAttempts     int               `json:"max_retry_attempts"`
	RetryDelaySeconds    float64           `json:"retry_delay_seconds"`
	CooldownSeconds      float64           `json:"cooldown_seconds"`
	TotalFallbackOptions int               `json:"total_fallback_options"`
	AvailableModels      []string          `json:"available_models"`
	CooledModels         []CooledModel     `json:"cooled_models"`
}

func (c *FallbackClient) Status() Status {
	st := Status{
		ModelHierarchy:       c.Models(),
		MaxRetryAttempts:     c.maxRetries,
		RetryDelaySeconds:    c.retryDelay.Seconds(),
		CooldownSeconds:      c.cooldown.Seconds(),
		TotalFallbackOptions: len(c.models),
		AvailableModels:      []string{},
		CooledModels:         []CooledModel{},
	}
	for _, m := range c.models {
		if remaining := c.cooldowns.Remaining(m.Name, c.cooldown); remaining > 0 {
			st.CooledModels = append(st.CooledModels, CooledModel{Name: m.Name, RemainingSeconds: remaining.Seconds()})
			continue
		}
		st.AvailableModels = append(st.AvailableModels, m.Name)
	}
	return st
}
