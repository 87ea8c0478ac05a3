// Package firecrawl fetches page markup through the Firecrawl API, so
// selector discovery can run without a local browser.
package firecrawl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mendableai/firecrawl-go"

	"jobscout/internal/clock"
	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
	"jobscout/internal/scraper"
)

// ErrNotConfigured is returned when no Firecrawl API key is set
var ErrNotConfigured = errors.New("firecrawl API key not configured")

// scrapeFunc matches FirecrawlApp.ScrapeURL
type scrapeFunc func(url string, params *firecrawl.ScrapeParams) (*firecrawl.FirecrawlDocument, error)

// Source implements scraper.MarkupSource with the Firecrawl scrape endpoint
type Source struct {
	scrape     scrapeFunc
	maxRetries int
	clock      clock.Clock
	limiter    *scraper.HostLimiter
	logger     types.Logger
}

var _ scraper.MarkupSource = (*Source)(nil)

// NewSource creates a Firecrawl markup source
func NewSource(cfg *config.Config, limiter *scraper.HostLimiter) (*Source, error) {
	if cfg.Firecrawl.APIKey == "" {
		return nil, ErrNotConfigured
	}
	app, err := firecrawl.NewFirecrawlApp(cfg.Firecrawl.APIKey, cfg.Firecrawl.APIURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firecrawl: %w", err)
	}
	if limiter == nil {
		limiter = scraper.NewHostLimiter(cfg.Scraper.HostRateLimit, cfg.Scraper.HostBurst)
	}

	logger := logging.GetGlobalLogger().WithField("source", "firecrawl")
	logger.Info("Firecrawl source initialized", map[string]interface{}{
		"api_url": cfg.Firecrawl.APIURL,
	})
	return newSource(app.ScrapeURL, cfg.Firecrawl.MaxRetries, clock.Real(), limiter, logger), nil
}

func newSource(scrape scrapeFunc, maxRetries int, clk clock.Clock, limiter *scraper.HostLimiter, logger types.Logger) *Source {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Source{scrape: scrape, maxRetries: maxRetries, clock: clk, limiter: limiter, logger: logger}
}

// FetchMarkup scrapes url as rendered HTML, retrying with a linear backoff
func (s *Source) FetchMarkup(ctx context.Context, url string) (string, error) {
	params := &firecrawl.ScrapeParams{Formats: []string{"html"}}

	var (
		doc *firecrawl.FirecrawlDocument
		err error
	)
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		if err = s.limiter.Wait(ctx, url); err != nil {
			return "", err
		}

		doc, err = s.scrape(url, params)
		if err == nil {
			s.limiter.RecordSuccess(url)
			break
		}
		s.limiter.RecordFailure(url, err)

		s.logger.Warn("Firecrawl scrape attempt failed", map[string]interface{}{
			"attempt":     attempt,
			"max_retries": s.maxRetries,
			"url":         url,
			"error":       err.Error(),
		})
		if attempt < s.maxRetries {
			if serr := s.clock.Sleep(ctx, time.Duration(attempt)*time.Second); serr != nil {
				return "", serr
			}
		}
	}
	if err != nil {
		return "", fmt.Errorf("firecrawl scraping failed after %d attempts: %w", s.maxRetries, err)
	}
	if doc == nil || doc.HTML == "" {
		return "", fmt.Errorf("no html returned from firecrawl for %s", url)
	}

	s.logger.Info("Successfully scraped content", map[string]interface{}{
		"content_length": len(doc.HTML),
		"url":            url,
	})
	return doc.HTML, nil
}
