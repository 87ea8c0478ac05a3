// Package background runs scrape requests on a fixed worker pool and keeps
// their results for polling.
package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
	"jobscout/internal/scout"
	"jobscout/pkg/models"
)

const (
	DefaultMaxWorkers   = 2
	DefaultMaxQueueSize = 100

	MaxWorkers   = 64
	MaxQueueSize = 10000
)

// Scraper is the work a scrape task performs; scout.Service implements it
type Scraper interface {
	Scrape(ctx context.Context, req models.ScrapeRequest) (*scout.ScrapeOutcome, error)
}

// TaskManager accepts scrape tasks and reports their progress
type TaskManager interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	SubmitScrapeTask(ctx context.Context, processID string, request models.ScrapeRequest) error
	GetTaskResult(ctx context.Context, processID string) (*TaskResult, error)
	ListTasks(ctx context.Context) ([]*TaskResult, error)
	IsHealthy() bool
}

// TaskManagerImpl implements TaskManager
type TaskManagerImpl struct {
	scraper      Scraper
	store        TaskStore
	logger       *TaskCompletionLogger
	appLogger    types.Logger
	maxWorkers   int
	maxQueueSize int
	taskTimeout  time.Duration
	maxTaskAge   time.Duration
	cleanupTick  time.Duration

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.RWMutex
	running  bool
	taskChan chan *TaskExecution
}

// TaskExecution is a queued task
type TaskExecution struct {
	ProcessID string
	Type      TaskType
	Request   models.ScrapeRequest
}

// validateTaskManagerConfig clamps the configured sizes to sane bounds
func validateTaskManagerConfig(cfg *config.Config) (maxWorkers, maxQueueSize int, err error) {
	maxWorkers = cfg.Workers.PoolSize
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	} else if maxWorkers > MaxWorkers {
		return 0, 0, fmt.Errorf("worker pool size (%d) exceeds maximum (%d)", maxWorkers, MaxWorkers)
	}

	maxQueueSize = cfg.Workers.QueueSize
	if maxQueueSize <= 0 {
		maxQueueSize = DefaultMaxQueueSize
	} else if maxQueueSize > MaxQueueSize {
		return 0, 0, fmt.Errorf("queue size (%d) exceeds maximum (%d)", maxQueueSize, MaxQueueSize)
	}
	return maxWorkers, maxQueueSize, nil
}

func NewTaskManager(cfg *config.Config, scraper Scraper) *TaskManagerImpl {
	logger := logging.GetGlobalLogger()

	maxWorkers, maxQueueSize, err := validateTaskManagerConfig(cfg)
	if err != nil {
		logger.Warn("Task manager configuration validation failed, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		maxWorkers = DefaultMaxWorkers
		maxQueueSize = DefaultMaxQueueSize
	}

	tm := &TaskManagerImpl{
		scraper:      scraper,
		store:        NewInMemoryTaskStore(),
		logger:       NewTaskCompletionLogger(logger),
		appLogger:    logger,
		maxWorkers:   maxWorkers,
		maxQueueSize: maxQueueSize,
		taskTimeout:  cfg.Workers.TaskTimeout,
		maxTaskAge:   cfg.Workers.MaxTaskAge,
		cleanupTick:  cfg.Workers.CleanupTick,
	}
	if tm.maxTaskAge <= 0 {
		tm.maxTaskAge = 24 * time.Hour
	}
	if tm.cleanupTick <= 0 {
		tm.cleanupTick = time.Hour
	}

	logger.Info("Task manager configuration initialized", map[string]interface{}{
		"max_workers":    maxWorkers,
		"max_queue_size": maxQueueSize,
		"using_defaults": err != nil,
	})
	return tm
}

// SetLogger replaces both the application and completion loggers
func (tm *TaskManagerImpl) SetLogger(l types.Logger) {
	tm.appLogger = l
	tm.logger = NewTaskCompletionLogger(l)
}

func (tm *TaskManagerImpl) Start(ctx context.Context) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.running {
		return fmt.Errorf("task manager already running")
	}

	tm.ctx, tm.cancel = context.WithCancel(ctx)
	tm.taskChan = make(chan *TaskExecution, tm.maxQueueSize)
	tm.running = true

	for i := 0; i < tm.maxWorkers; i++ {
		tm.wg.Add(1)
		go tm.worker(i, tm.taskChan)
	}

	tm.wg.Add(1)
	go tm.cleanupRoutine()

	tm.appLogger.Info("Task manager started", map[string]interface{}{
		"max_workers": tm.maxWorkers,
	})
	return nil
}

// Stop closes the queue and waits for the workers. Queued tasks that no
// worker picked up are marked FAILURE.
func (tm *TaskManagerImpl) Stop(ctx context.Context) error {
	tm.mu.Lock()
	if !tm.running {
		tm.mu.Unlock()
		return nil
	}
	tm.running = false
	tm.cancel()
	close(tm.taskChan)
	tm.mu.Unlock()

	tm.appLogger.Info("Stopping task manager")

	done := make(chan struct{})
	go func() {
		tm.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		tm.appLogger.Info("Task manager stopped gracefully")
		return nil
	case <-ctx.Done():
		tm.appLogger.Warn("Task manager shutdown timed out")
		return ctx.Err()
	}
}

// SubmitScrapeTask records the task as ACCEPTED and queues it. A full queue
// rejects the task and forgets it.
func (tm *TaskManagerImpl) SubmitScrapeTask(ctx context.Context, processID string, request models.ScrapeRequest) error {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	if !tm.running {
		return ErrNotRunning
	}

	result := &TaskResult{
		ProcessID: processID,
		Type:      TaskTypeScrape,
		Status:    TaskStatusAccepted,
		CreatedAt: time.Now(),
		Metadata: map[string]interface{}{
			"company": request.Company,
			"url":     request.URL,
			"engine":  request.Engine,
		},
	}
	if err := tm.store.Store(ctx, result); err != nil {
		return fmt.Errorf("failed to store task result: %w", err)
	}

	select {
	case tm.taskChan <- &TaskExecution{ProcessID: processID, Type: TaskTypeScrape, Request: request}:
		tm.logger.LogTaskAccepted(processID, TaskTypeScrape)
		return nil
	default:
		_ = tm.store.Delete(ctx, processID)
		return ErrQueueFull
	}
}

func (tm *TaskManagerImpl) GetTaskResult(ctx context.Context, processID string) (*TaskResult, error) {
	return tm.store.Get(ctx, processID)
}

func (tm *TaskManagerImpl) ListTasks(ctx context.Context) ([]*TaskResult, error) {
	return tm.store.List(ctx)
}

func (tm *TaskManagerImpl) IsHealthy() bool {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.running && tm.ctx.Err() == nil
}

// QueueDepth returns how many tasks are waiting for a worker
func (tm *TaskManagerImpl) QueueDepth() int {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	if tm.taskChan == nil {
		return 0
	}
	return len(tm.taskChan)
}

func (tm *TaskManagerImpl) worker(workerID int, tasks <-chan *TaskExecution) {
	defer tm.wg.Done()

	for task := range tasks {
		if tm.ctx.Err() != nil {
			tm.finish(task, nil, fmt.Errorf("task manager stopped before the task started"), 0)
			continue
		}
		tm.processTask(workerID, task)
	}
}

func (tm *TaskManagerImpl) processTask(workerID int, task *TaskExecution) {
	start := time.Now()
	logger := tm.appLogger.WithFields(map[string]interface{}{
		"worker_id":  workerID,
		"process_id": task.ProcessID,
		"task_type":  task.Type,
	})
	logger.Info("Processing task")

	if err := tm.updateStatus(task.ProcessID, TaskStatusProcessing); err != nil {
		logger.Error("Failed to update task status to processing", map[string]interface{}{"error": err.Error()})
	}
	tm.logger.LogTaskStart(task.ProcessID, task.Type)

	ctx := tm.ctx
	if tm.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, tm.taskTimeout)
		defer cancel()
	}

	outcome, err := tm.run(ctx, task)
	tm.finish(task, outcome, err, time.Since(start))
}

// run isolates a panicking scrape so the worker survives it
func (tm *TaskManagerImpl) run(ctx context.Context, task *TaskExecution) (outcome *scout.ScrapeOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scrape task panicked: %v", r)
		}
	}()
	return tm.scraper.Scrape(ctx, task.Request)
}

func (tm *TaskManagerImpl) finish(task *TaskExecution, outcome *scout.ScrapeOutcome, err error, elapsed time.Duration) {
	result, getErr := tm.store.Get(context.Background(), task.ProcessID)
	if getErr != nil {
		tm.appLogger.Error("Failed to retrieve task result", map[string]interface{}{
			"process_id": task.ProcessID,
			"error":      getErr.Error(),
		})
		return
	}

	if err == nil && outcome == nil {
		err = fmt.Errorf("scrape returned no outcome")
	}

	completedAt := time.Now()
	result.CompletedAt = &completedAt
	result.ProcessingTime = &elapsed

	if err != nil {
		result.Status = TaskStatusFailure
		result.Error = err.Error()
		tm.logger.LogTaskError(task.ProcessID, task.Type, err)
	} else {
		result.Status = TaskStatusSuccess
		result.Data = outcome.CompletionData()
		result.Metadata["engine"] = outcome.Engine
		result.Metadata["total_jobs"] = len(outcome.Jobs)
		tm.logger.LogTaskSuccess(task.ProcessID, task.Type, elapsed)
	}

	if err := tm.store.Update(context.Background(), result); err != nil {
		tm.appLogger.Error("Failed to store task result", map[string]interface{}{"error": err.Error()})
	}
	tm.logger.LogTaskCompletion(result)
}

func (tm *TaskManagerImpl) updateStatus(processID string, status TaskStatus) error {
	result, err := tm.store.Get(context.Background(), processID)
	if err != nil {
		return err
	}
	result.Status = status
	return tm.store.Update(context.Background(), result)
}

func (tm *TaskManagerImpl) cleanupRoutine() {
	defer tm.wg.Done()

	ticker := time.NewTicker(tm.cleanupTick)
	defer ticker.Stop()

	for {
		select {
		case <-tm.ctx.Done():
			return
		case <-ticker.C:
			removed, err := tm.store.Cleanup(context.Background(), tm.maxTaskAge)
			if err != nil {
				tm.appLogger.Error("Failed to cleanup old task results", map[string]interface{}{"error": err.Error()})
				continue
			}
			if removed > 0 {
				tm.appLogger.Debug("Expired task results removed", map[string]interface{}{"count": removed})
			}
		}
	}
}
