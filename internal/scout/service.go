// Package scout wires selector discovery, the extraction walk, selector
// storage and result sinks into the two user-facing operations.
package scout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobscout/internal/clock"
	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
	"jobscout/internal/scraper"
	"jobscout/internal/scraper/extraction"
	"jobscout/internal/sink"
	"jobscout/internal/store"
	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

// EngineProvider resolves engine names; engines.Factory implements it
type EngineProvider interface {
	Engine(name string) (scraper.Engine, error)
}

// Dependencies are the collaborators a Service needs
type Dependencies struct {
	Engines    EngineProvider
	Markup     scraper.MarkupSource
	Discoverer extraction.Discoverer
	Store      store.SelectorStore
	// Sink is optional; nil keeps results in memory only
	Sink sink.Sink
}

// ScrapeOutcome summarizes one company scrape
type ScrapeOutcome struct {
	Company   string
	URL       string
	Engine    string
	Jobs      []models.JobRecord
	Pages     int
	Reason    extraction.TerminalReason
	Selectors models.SelectorMap
	Artifacts []string
	// Warnings holds non-fatal problems such as a failed sink write
	Warnings []string
	Duration time.Duration
}

// Response converts the outcome for API callers
func (o *ScrapeOutcome) Response(requestID string) models.ScrapeResponse {
	return models.ScrapeResponse{
		Success:        true,
		Company:        o.Company,
		URL:            o.URL,
		TotalJobs:      len(o.Jobs),
		Pages:          o.Pages,
		TerminalReason: string(o.Reason),
		Jobs:           o.Jobs,
		Artifacts:      o.Artifacts,
		ProcessingTime: o.Duration,
		Engine:         o.Engine,
		RequestID:      requestID,
	}
}

// CompletionData converts the outcome for background task results
func (o *ScrapeOutcome) CompletionData() models.AsyncScrapeCompletionData {
	return models.AsyncScrapeCompletionData{
		Company:        o.Company,
		TotalJobs:      len(o.Jobs),
		Pages:          o.Pages,
		TerminalReason: string(o.Reason),
		Jobs:           o.Jobs,
		Artifacts:      o.Artifacts,
		Engine:         o.Engine,
	}
}

// Service runs scout and scrape operations
type Service struct {
	config *config.Config
	deps   Dependencies
	runner *extraction.Runner
	clock  clock.Clock
	logger types.Logger
}

type Option func(*Service)

func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithLogger(l types.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(cfg *config.Config, deps Dependencies, opts ...Option) *Service {
	s := &Service{
		config: cfg,
		deps:   deps,
		clock:  clock.Real(),
		logger: logging.GetGlobalLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	runnerOpts := []extraction.RunnerOption{
		extraction.WithClock(s.clock),
		extraction.WithLogger(s.logger),
	}
	if deps.Store != nil {
		runnerOpts = append(runnerOpts, extraction.WithSelectorSaver(store.Saver{Store: deps.Store}))
	}
	s.runner = extraction.NewRunner(deps.Discoverer, extraction.Config{
		SelectorTimeout:   cfg.Scraper.SelectorTimeout,
		PageSettleWait:    cfg.Scraper.PageSettleWait,
		DetailSettleWait:  cfg.Scraper.DetailSettleWait,
		NavigationTimeout: cfg.Scraper.BrowserTimeout,
	}, runnerOpts...)
	return s
}

// Scout discovers and stores the list selectors for a careers page
func (s *Service) Scout(ctx context.Context, company, url string) (*models.SelectorMap, error) {
	logger := s.logger.WithFields(map[string]interface{}{"company": company, "url": url})
	logger.Info("Running scout mode")

	markup, err := s.deps.Markup.FetchMarkup(ctx, url)
	if err != nil {
		return nil, utils.NewScrapingError("failed to fetch careers page").Wrap(err)
	}

	selectors, err := s.deps.Discoverer.DiscoverListSelectors(ctx, markup, url)
	if err != nil {
		return nil, utils.NewLLMError("selector discovery failed").Wrap(err)
	}
	if !selectors.Usable() {
		return nil, utils.NewLLMError("no job_item selector identified")
	}

	if s.deps.Store != nil {
		if err := s.deps.Store.Save(ctx, company, selectors); err != nil {
			return nil, err
		}
	}
	logger.Info("Scout completed", map[string]interface{}{"selectors_found": selectors.Found()})
	return &selectors, nil
}

// Scrape walks a careers page and hands the records to the sink. A browser
// that cannot start is returned as an error; so are walks that could not
// begin (no page, no selectors). Partial walks are outcomes, not errors.
func (s *Service) Scrape(ctx context.Context, req models.ScrapeRequest) (*ScrapeOutcome, error) {
	start := s.clock.Now()
	logger := s.logger.WithFields(map[string]interface{}{"company": req.Company, "url": req.URL})

	engine, err := s.deps.Engines.Engine(req.Engine)
	if err != nil {
		return nil, utils.NewValidationError(err.Error())
	}

	selectors := s.storedSelectors(ctx, req, logger)

	extractDetails := s.config.Scraper.ExtractDetails
	if req.ExtractDetails != nil {
		extractDetails = *req.ExtractDetails
	}

	session, err := engine.Open(ctx)
	if err != nil {
		logger.Error("Failed to open browser session", map[string]interface{}{"engine": engine.Name(), "error": err.Error()})
		return nil, err
	}
	defer session.Close()

	res, err := s.runner.Run(ctx, session, extraction.Options{
		Company:        req.Company,
		URL:            req.URL,
		Selectors:      selectors,
		ExtractDetails: extractDetails,
		MaxPages:       s.config.Scraper.MaxPages,
	})
	if err != nil {
		return nil, err
	}

	outcome := &ScrapeOutcome{
		Company:   req.Company,
		URL:       req.URL,
		Engine:    engine.Name(),
		Jobs:      res.Jobs,
		Pages:     res.Pages,
		Reason:    res.Reason,
		Selectors: res.Selectors,
	}

	if walkErr := startFailure(res); walkErr != nil {
		outcome.Duration = s.clock.Now().Sub(start)
		return outcome, walkErr
	}

	if s.deps.Sink != nil && len(res.Jobs) > 0 {
		artifacts, err := s.deps.Sink.Write(ctx, sink.Batch{
			Company:   req.Company,
			CareerURL: req.URL,
			Jobs:      res.Jobs,
			ScrapedAt: s.clock.Now(),
			Enhanced:  extractDetails,
		})
		outcome.Artifacts = artifacts
		if err != nil {
			outcome.Warnings = append(outcome.Warnings, err.Error())
		}
	}

	outcome.Duration = s.clock.Now().Sub(start)
	logger.Info("Scrape completed", map[string]interface{}{
		"jobs":     len(outcome.Jobs),
		"pages":    outcome.Pages,
		"reason":   string(outcome.Reason),
		"duration": utils.FormatDuration(outcome.Duration),
	})
	return outcome, nil
}

// Configurations lists stored selector maps
func (s *Service) Configurations(ctx context.Context) ([]models.CompanyConfiguration, error) {
	if s.deps.Store == nil {
		return []models.CompanyConfiguration{}, nil
	}
	return s.deps.Store.List(ctx)
}

// Configuration returns one stored selector map or a not-found error
func (s *Service) Configuration(ctx context.Context, company string) (*models.CompanyConfiguration, error) {
	if s.deps.Store == nil {
		return nil, utils.NewNotFoundError(company)
	}
	cfg, err := s.deps.Store.Load(ctx, company)
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.NewNotFoundError(fmt.Sprintf("no configuration stored for %s", company)).Wrap(err)
	}
	return cfg, err
}

func (s *Service) storedSelectors(ctx context.Context, req models.ScrapeRequest, logger types.Logger) *models.SelectorMap {
	if req.Rediscover || s.deps.Store == nil {
		return nil
	}
	cfg, err := s.deps.Store.Load(ctx, req.Company)
	switch {
	case errors.Is(err, store.ErrNotFound):
		logger.Info("No stored selectors, discovering")
		return nil
	case err != nil:
		logger.Warn("Failed to load stored selectors, discovering", map[string]interface{}{"error": err.Error()})
		return nil
	case !cfg.Selectors.Usable():
		return nil
	}
	logger.Info("Using stored selectors", map[string]interface{}{"last_updated": cfg.LastUpdated})
	return &cfg.Selectors
}

func startFailure(res *extraction.Result) error {
	switch res.Reason {
	case extraction.ReasonNavigationFailed:
		return utils.NewScrapingError("failed to load careers page").Wrap(res.Err)
	case extraction.ReasonDiscoveryFailed:
		return utils.NewLLMError("selector discovery failed").Wrap(res.Err)
	case extraction.ReasonNoSelectors:
		return utils.NewLLMError("no job_item selector identified").Wrap(res.Err)
	}
	return nil
}
