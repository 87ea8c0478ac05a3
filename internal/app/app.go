// Package app wires configuration into the services both binaries run.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jobscout/internal/batch"
	"jobscout/internal/clock"
	"jobscout/internal/config"
	"jobscout/internal/llm"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
	"jobscout/internal/scout"
	"jobscout/internal/scraper/engines"
	"jobscout/internal/sink"
	"jobscout/internal/store"
	"jobscout/pkg/models"
)

// App holds the long-lived services built from one configuration
type App struct {
	Config  *config.Config
	LLM     *llm.Manager
	Engines *engines.Factory
	Store   store.SelectorStore
	Sink    *sink.Multi
	Service *scout.Service
	Logger  types.Logger
}

// Option adjusts how New builds the services
type Option func(*options)

type options struct {
	llmOpts []llm.Option
	clock   clock.Clock
}

// WithLLMOptions forwards options to the model manager
func WithLLMOptions(opts ...llm.Option) Option {
	return func(o *options) { o.llmOpts = append(o.llmOpts, opts...) }
}

func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// New validates cfg, creates the output directories and builds every
// service. Anything opened before a failure is closed again.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (a *App, err error) {
	o := options{clock: clock.Real()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := sink.EnsureDirs(cfg); err != nil {
		return nil, err
	}

	a = &App{Config: cfg, Logger: logging.GetGlobalLogger()}
	defer func() {
		if err != nil {
			_ = a.Close()
			a = nil
		}
	}()

	a.LLM, err = llm.NewManager(cfg, append([]llm.Option{llm.WithClock(o.clock)}, o.llmOpts...)...)
	if err != nil {
		return nil, err
	}

	a.Engines = engines.NewFactory(cfg)
	markup, err := a.Engines.MarkupSource(o.clock)
	if err != nil {
		return nil, fmt.Errorf("failed to build markup source: %w", err)
	}

	if a.Store, err = store.New(ctx, cfg); err != nil {
		return nil, err
	}
	if a.Sink, err = sink.New(ctx, cfg); err != nil {
		return nil, err
	}

	a.Service = scout.NewService(cfg, scout.Dependencies{
		Engines:    a.Engines,
		Markup:     markup,
		Discoverer: a.LLM,
		Store:      a.Store,
		Sink:       a.Sink,
	}, scout.WithClock(o.clock))

	a.Logger.Info("Services initialized", map[string]interface{}{
		"provider": a.LLM.ProviderName(),
		"engine":   cfg.Scraper.Engine,
		"markup":   cfg.Scraper.MarkupSource,
		"storage":  cfg.Storage.Backend,
		"sink":     a.Sink.Name(),
	})
	return a, nil
}

// BatchRunner returns a runner over the scout service and selector store
func (a *App) BatchRunner() *batch.Runner {
	return batch.NewRunner(a.Service, a.Store, a.Config.Batch.Concurrency, a.Config.Scraper.ExtractDetails)
}

// LoadCompanies reads the configured companies file
func (a *App) LoadCompanies() ([]models.Company, error) {
	return batch.LoadCompanies(a.Config.Batch.CompaniesFile)
}

// FallbackSummary renders the model hierarchy and retry policy as lines
// suitable for a startup banner
func (a *App) FallbackSummary() []string {
	st := a.LLM.Status()
	lines := []string{
		fmt.Sprintf("Provider: %s", st.Provider),
		fmt.Sprintf("Rate limit: %d requests/minute, %.1fs minimum spacing", st.RequestsPerMinute, st.MinIntervalSecs),
		fmt.Sprintf("Retries per model: %d, %.0fs apart", st.Fallback.MaxRetryAttempts, st.Fallback.RetryDelaySeconds),
		fmt.Sprintf("Quota cooldown: %.0fs", st.Fallback.CooldownSeconds),
		"Model hierarchy:",
	}
	for _, m := range st.Fallback.ModelHierarchy {
		line := fmt.Sprintf("  %d. %s", m.PriorityRank, m.Name)
		if m.Description != "" {
			line += " (" + m.Description + ")"
		}
		lines = append(lines, line)
	}
	if len(st.Fallback.CooledModels) > 0 {
		names := make([]string, 0, len(st.Fallback.CooledModels))
		for _, c := range st.Fallback.CooledModels {
			names = append(names, c.Name)
		}
		lines = append(lines, "Cooling down: "+strings.Join(names, ", "))
	}
	return lines
}

// Close releases the store and sink connections
func (a *App) Close() error {
	var errs []error
	if a.Sink != nil {
		errs = append(errs, a.Sink.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}
