// Package engines builds the configured scraper.Engine and markup source
package engines

import (
	"fmt"
	"sync"

	"jobscout/internal/clock"
	"jobscout/internal/config"
	"jobscout/internal/scraper"
	"jobscout/internal/scraper/engines/firecrawl"
	"jobscout/internal/scraper/engines/headed"
	"jobscout/internal/scraper/engines/static"
)

// Factory creates engines that share one per-host limiter
type Factory struct {
	config  *config.Config
	limiter *scraper.HostLimiter
	engines map[string]scraper.Engine
	mu      sync.Mutex
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{
		config:  cfg,
		limiter: scraper.NewHostLimiter(cfg.Scraper.HostRateLimit, cfg.Scraper.HostBurst),
		engines: make(map[string]scraper.Engine),
	}
}

// Engine returns the named engine, or the configured default for "".
// Engines are created once and reused.
func (f *Factory) Engine(name string) (scraper.Engine, error) {
	if name == "" {
		name = f.config.Scraper.Engine
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if eng, ok := f.engines[name]; ok {
		return eng, nil
	}

	var eng scraper.Engine
	switch name {
	case "headed":
		eng = headed.NewBrowserManager(f.config, f.limiter)
	case "static":
		eng = static.NewEngine(f.config, f.limiter)
	default:
		return nil, fmt.Errorf("unsupported scraping engine: %s", name)
	}
	f.engines[name] = eng
	return eng, nil
}

// MarkupSource returns the source scout uses to fetch listing markup:
// Firecrawl when configured, otherwise the default engine
func (f *Factory) MarkupSource(clk clock.Clock) (scraper.MarkupSource, error) {
	if f.config.Scraper.MarkupSource == "firecrawl" {
		return firecrawl.NewSource(f.config, f.limiter)
	}
	eng, err := f.Engine("")
	if err != nil {
		return nil, err
	}
	return &scraper.EngineMarkupSource{
		Engine:     eng,
		SettleWait: f.config.Scraper.PageSettleWait,
		Clock:      clk,
	}, nil
}

// SupportedEngines returns the accepted engine names
func (f *Factory) SupportedEngines() []string {
	return []string{"headed", "static"}
}
