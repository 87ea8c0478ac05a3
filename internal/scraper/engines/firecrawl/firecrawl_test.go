package firecrawl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mendableai/firecrawl-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout/internal/clock"
	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/internal/scraper"
)

func TestFetchMarkupRetriesWithBackoff(t *testing.T) {
	clk := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	calls := 0
	scrape := func(url string, params *firecrawl.ScrapeParams) (*firecrawl.FirecrawlDocument, error) {
		calls++
		assert.Equal(t, []string{"html"}, params.Formats)
		if calls < 3 {
			return nil, errors.New("upstream timeout")
		}
		return &firecrawl.FirecrawlDocument{HTML: "<main>jobs</main>"}, nil
	}
	src := newSource(scrape, 3, clk, scraper.NewHostLimiter(0, 1), logging.NewMultiLogger())

	markup, err := src.FetchMarkup(context.Background(), "https://jobs.example.com")
	require.NoError(t, err)
	assert.Equal(t, "<main>jobs</main>", markup)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, clk.Sleeps())
}

func TestFetchMarkupEmptyDocument(t *testing.T) {
	clk := clock.NewFake(time.Now())
	scrape := func(string, *firecrawl.ScrapeParams) (*firecrawl.FirecrawlDocument, error) {
		return &firecrawl.FirecrawlDocument{}, nil
	}
	src := newSource(scrape, 2, clk, scraper.NewHostLimiter(0, 1), logging.NewMultiLogger())

	_, err := src.FetchMarkup(context.Background(), "https://jobs.example.com")
	assert.Error(t, err)
}

func TestNewSourceRequiresAPIKey(t *testing.T) {
	cfg := config.Default()
	cfg.Firecrawl.APIKey = ""
	_, err := NewSource(cfg, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
