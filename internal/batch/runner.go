package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
	"jobscout/internal/scout"
	"jobscout/internal/store"
	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

var (
	errNoCareerURL = errors.New("no career URL")
	errNoJobs      = errors.New("no jobs found")
)

// Operations is the per-company work; scout.Service implements it
type Operations interface {
	Scout(ctx context.Context, company, url string) (*models.SelectorMap, error)
	Scrape(ctx context.Context, req models.ScrapeRequest) (*scout.ScrapeOutcome, error)
}

// ConfigLookup reports whether a company already has selectors
type ConfigLookup interface {
	Load(ctx context.Context, company string) (*models.CompanyConfiguration, error)
}

// Summary is the result of one batch phase
type Summary struct {
	Phase     string            `json:"phase"`
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	TotalJobs int               `json:"total_jobs"`
	Errors    map[string]string `json:"errors,omitempty"`
	Duration  time.Duration     `json:"duration"`

	mu sync.Mutex
}

func newSummary(phase string, total int) *Summary {
	return &Summary{Phase: phase, Total: total, Errors: map[string]string{}}
}

func (s *Summary) success(jobs int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Succeeded++
	s.TotalJobs += jobs
}

func (s *Summary) failure(company string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Failed++
	s.Errors[company] = err.Error()
}

// WorkflowSummary is the result of RunAll
type WorkflowSummary struct {
	WithConfig   int      `json:"with_config"`
	NeedingScout int      `json:"needing_scout"`
	Scout        *Summary `json:"scout,omitempty"`
	Scrape       *Summary `json:"scrape"`
}

// Runner processes companies with bounded concurrency
type Runner struct {
	ops            Operations
	configs        ConfigLookup
	concurrency    int
	extractDetails bool
	logger         types.Logger
}

func NewRunner(ops Operations, configs ConfigLookup, concurrency int, extractDetails bool) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		ops:            ops,
		configs:        configs,
		concurrency:    concurrency,
		extractDetails: extractDetails,
		logger:         logging.GetGlobalLogger(),
	}
}

// BatchScout discovers selectors for every company
func (r *Runner) BatchScout(ctx context.Context, companies []models.Company) *Summary {
	return r.each(ctx, "scout", companies, func(ctx context.Context, c models.Company) (int, error) {
		if _, err := r.ops.Scout(ctx, c.Name, c.CareerURL); err != nil {
			return 0, err
		}
		return 0, nil
	})
}

// BatchScrape scrapes every company that has a career URL. A company that
// yields no jobs counts as failed.
func (r *Runner) BatchScrape(ctx context.Context, companies []models.Company) *Summary {
	return r.each(ctx, "scrape", companies, func(ctx context.Context, c models.Company) (int, error) {
		details := r.extractDetails
		outcome, err := r.ops.Scrape(ctx, models.ScrapeRequest{
			Company:        c.Name,
			URL:            c.CareerURL,
			ExtractDetails: &details,
		})
		if err != nil {
			return 0, err
		}
		if len(outcome.Jobs) == 0 {
			return 0, fmt.Errorf("%w (%s)", errNoJobs, outcome.Reason)
		}
		return len(outcome.Jobs), nil
	})
}

// RunAll scouts the companies without stored selectors, then scrapes every
// company that has them
func (r *Runner) RunAll(ctx context.Context, companies []models.Company) *WorkflowSummary {
	var withConfig, needing []models.Company
	for _, c := range companies {
		if r.hasConfig(ctx, c.Name) {
			withConfig = append(withConfig, c)
		} else {
			needing = append(needing, c)
		}
	}

	out := &WorkflowSummary{WithConfig: len(withConfig), NeedingScout: len(needing)}
	r.logger.Info("Configuration status", map[string]interface{}{
		"companies":     len(companies),
		"with_config":   len(withConfig),
		"needing_scout": len(needing),
	})

	if len(needing) > 0 {
		out.Scout = r.BatchScout(ctx, needing)
	}

	var ready []models.Company
	unconfigured := map[string]bool{}
	for _, c := range companies {
		if r.hasConfig(ctx, c.Name) {
			ready = append(ready, c)
		} else {
			unconfigured[c.Name] = true
		}
	}

	out.Scrape = r.BatchScrape(ctx, ready)
	out.Scrape.Total = len(companies)
	for name := range unconfigured {
		out.Scrape.failure(name, errors.New("no configuration available"))
	}
	return out
}

func (r *Runner) hasConfig(ctx context.Context, company string) bool {
	cfg, err := r.configs.Load(ctx, company)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			r.logger.Warn("Failed to check configuration", map[string]interface{}{"company": company, "error": err.Error()})
		}
		return false
	}
	return cfg.Selectors.Usable()
}

func (r *Runner) each(ctx context.Context, phase string, companies []models.Company, fn func(context.Context, models.Company) (int, error)) *Summary {
	start := time.Now()
	summary := newSummary(phase, len(companies))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for _, c := range companies {
		c := c
		if c.CareerURL == "" {
			r.logger.Warn("No career URL, skipping", map[string]interface{}{"company": c.Name, "phase": phase})
			summary.failure(c.Name, errNoCareerURL)
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				summary.failure(c.Name, err)
				return nil
			}
			logger := r.logger.WithFields(map[string]interface{}{"company": c.Name, "phase": phase})
			logger.Info("Processing company", map[string]interface{}{"url": c.CareerURL})

			jobs, err := fn(ctx, c)
			if err != nil {
				logger.Error("Company failed", map[string]interface{}{"error": err.Error()})
				summary.failure(c.Name, err)
				return nil
			}
			summary.success(jobs)
			return nil
		})
	}
	_ = g.Wait()

	summary.Duration = time.Since(start)
	r.logger.Info("Batch phase finished", map[string]interface{}{
		"phase":      phase,
		"succeeded":  summary.Succeeded,
		"failed":     summary.Failed,
		"total_jobs": summary.TotalJobs,
		"duration":   utils.FormatDuration(summary.Duration),
	})
	return summary
}
