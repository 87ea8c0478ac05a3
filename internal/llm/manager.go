package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"jobscout/internal/clock"
	"jobscout/internal/config"
	"jobscout/internal/llm/processors"
	"jobscout/internal/llm/resilience"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
	"jobscout/pkg/models"
)

// ErrEmptyMarkup is returned when normalization leaves nothing to analyze
var ErrEmptyMarkup = errors.New("no markup left after normalization")

// Manager owns the provider and the process-wide resilience state: one rate
// limiter and one cooldown tracker shared by every scrape session.
type Manager struct {
	config    *config.Config
	factory   *ProviderFactory
	provider  Provider
	clock     clock.Clock
	limiter   *resilience.RateLimiter
	cooldowns *resilience.CooldownTracker
	client    *resilience.FallbackClient
	cleaner   *processors.HTMLCleaner
	logger    types.Logger
	mu        sync.RWMutex
	healthy   bool
}

// Option customizes a Manager
type Option func(*Manager)

// WithProvider replaces the configured provider
func WithProvider(p Provider) Option {
	return func(m *Manager) { m.provider = p }
}

// WithClock replaces the wall clock for rate limiting, cooldowns and retries
func WithClock(c clock.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithLogger replaces the global logger
func WithLogger(l types.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager builds the provider, the limiter, the cooldown tracker and the
// fallback client from configuration
func NewManager(cfg *config.Config, opts ...Option) (*Manager, error) {
	m := &Manager{
		config:  cfg,
		factory: NewProviderFactory(cfg),
		clock:   clock.Real(),
		cleaner: processors.NewHTMLCleaner(cfg.LLM.MaxMarkupChars),
		logger:  logging.GetGlobalLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.provider == nil {
		provider, err := m.factory.CreateProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM provider: %w", err)
		}
		m.provider = provider
	}

	hierarchy := make([]resilience.ModelDescriptor, 0, len(cfg.LLM.Models))
	for _, model := range cfg.LLM.Models {
		hierarchy = append(hierarchy, resilience.ModelDescriptor{Name: model.Name, Description: model.Description})
	}

	m.limiter = resilience.NewRateLimiter(cfg.LLM.RequestsPerMinute, cfg.LLM.RequestBuffer, m.clock)
	m.cooldowns = resilience.NewCooldownTracker(m.clock)
	m.client = resilience.NewFallbackClient(m.provider, resilience.ClientConfig{
		Models:     hierarchy,
		MaxRetries: cfg.LLM.MaxRetries,
		RetryDelay: cfg.LLM.RetryDelay,
		Cooldown:   cfg.LLM.Cooldown,
		Limiter:    m.limiter,
		Cooldowns:  m.cooldowns,
		Clock:      m.clock,
		Logger:     m.logger.WithField("component", "fallback_client"),
	})
	m.healthy = true
	return m, nil
}

// Start checks provider health. A failing check is logged but does not stop
// startup; discovery calls will surface the real error.
func (m *Manager) Start(ctx context.Context) error {
	m.logger.Info("Starting LLM manager", map[string]interface{}{
		"provider": m.provider.Name(),
		"models":   m.config.ModelNames(),
	})
	return m.CheckHealth(ctx)
}

// CheckHealth performs a health check on the provider
func (m *Manager) CheckHealth(ctx context.Context) error {
	if m.config.LLM.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.LLM.Timeout)
		defer cancel()
	}
	err := m.provider.IsHealthy(ctx)

	m.mu.Lock()
	m.healthy = err == nil
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn("LLM provider health check failed", map[string]interface{}{
			"provider": m.provider.Name(),
			"error":    err.Error(),
		})
	}
	return err
}

// DiscoverListSelectors normalizes a careers listing page and asks the model
// hierarchy for its list selector map
func (m *Manager) DiscoverListSelectors(ctx context.Context, markup, pageURL string) (models.SelectorMap, error) {
	cleaned, err := m.normalize(markup)
	if err != nil {
		return models.SelectorMap{}, err
	}

	res, err := m.client.Resolve(ctx, ListPrompt(pageURL), cleaned)
	if err != nil {
		return models.SelectorMap{}, fmt.Errorf("list selector discovery failed: %w", err)
	}

	selectors := models.ParseSelectorMap(res.Object)
	m.logger.Info("List selectors discovered", map[string]interface{}{
		"url":      pageURL,
		"model":    res.Model,
		"attempts": res.Attempts,
		"found":    selectors.Found(),
	})
	return selectors, nil
}

// DiscoverDetailSelectors asks for the detail page selector map
func (m *Manager) DiscoverDetailSelectors(ctx context.Context, markup string) (models.DetailSelectorMap, error) {
	cleaned, err := m.normalize(markup)
	if err != nil {
		return models.DetailSelectorMap{}, err
	}

	res, err := m.client.Resolve(ctx, DetailPrompt(), cleaned)
	if err != nil {
		return models.DetailSelectorMap{}, fmt.Errorf("detail selector discovery failed: %w", err)
	}

	m.logger.Info("Detail selectors discovered", map[string]interface{}{
		"model":    res.Model,
		"attempts": res.Attempts,
	})
	return models.ParseDetailSelectorMap(res.Object), nil
}

func (m *Manager) normalize(markup string) (string, error) {
	cleaned, err := m.cleaner.Normalize(markup)
	if err != nil {
		return "", fmt.Errorf("failed to normalize markup: %w", err)
	}
	if cleaned == "" {
		return "", ErrEmptyMarkup
	}
	m.logger.Debug("Markup normalized", map[string]interface{}{
		"raw_size":     len(markup),
		"cleaned_size": len(cleaned),
	})
	return cleaned, nil
}

// StatusReport describes the provider and the fallback state
type StatusReport struct {
	Provider          string            `json:"provider"`
	Healthy           bool              `json:"healthy"`
	RequestsInWindow  int               `json:"requests_in_window"`
	RequestsPerMinute int               `json:"requests_per_minute"`
	MinIntervalSecs   float64           `json:"min_interval_seconds"`
	Fallback          resilience.Status `json:"fallback"`
}

func (m *Manager) Status() StatusReport {
	used, limit := m.limiter.WindowUsage()
	return StatusReport{
		Provider:          m.provider.Name(),
		Healthy:           m.IsHealthy(),
		RequestsInWindow:  used,
		RequestsPerMinute: limit,
		MinIntervalSecs:   m.limiter.MinInterval().Seconds(),
		Fallback:          m.client.Status(),
	}
}

// IsHealthy reports the result of the last health check
func (m *Manager) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthy
}

// ProviderName returns the name of the current provider
func (m *Manager) ProviderName() string {
	return m.provider.Name()
}
