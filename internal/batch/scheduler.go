package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
	"jobscout/pkg/models"
)

// Scheduler runs the intelligent workflow on a cron spec. A tick that fires
// while the previous run is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	runner  *Runner
	load    func() ([]models.Company, error)
	logger  types.Logger
	running sync.Mutex
	lastRun *WorkflowSummary
	mu      sync.Mutex
}

func NewScheduler(spec string, runner *Runner, load func() ([]models.Company, error)) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		spec:   spec,
		runner: runner,
		load:   load,
		logger: logging.GetGlobalLogger(),
	}
}

// Start registers the job and starts the cron loop
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid batch schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("Batch scheduler started", map[string]interface{}{"spec": s.spec})
	return nil
}

// Stop halts scheduling and waits for a running job to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Batch scheduler stopped")
}

// RunOnce executes one workflow run unless one is already in progress
func (s *Scheduler) RunOnce(ctx context.Context) *WorkflowSummary {
	if !s.running.TryLock() {
		s.logger.Warn("Previous batch run still in progress, skipping tick")
		return nil
	}
	defer s.running.Unlock()

	companies, err := s.load()
	if err != nil {
		s.logger.Error("Failed to load companies", map[string]interface{}{"error": err.Error()})
		return nil
	}
	summary := s.runner.RunAll(ctx, companies)

	s.mu.Lock()
	s.lastRun = summary
	s.mu.Unlock()
	return summary
}

// LastRun returns the most recent workflow summary, nil before the first run
func (s *Scheduler) LastRun() *WorkflowSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}
