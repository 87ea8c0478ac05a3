package background

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"jobscout/pkg/models"
)

// TaskStatus represents the status of a background task
type TaskStatus = models.AsyncStatus

const (
	TaskStatusAccepted   = models.AsyncStatusAccepted
	TaskStatusProcessing = models.AsyncStatusProcessing
	TaskStatusSuccess    = models.AsyncStatusSuccess
	TaskStatusFailure    = models.AsyncStatusFailure
)

// TaskType represents the type of background task
type TaskType string

const TaskTypeScrape TaskType = "scrape"

// TaskResult represents the result of a background task
type TaskResult struct {
	ProcessID      string                 `json:"processId"`
	Type           TaskType               `json:"type"`
	Status         TaskStatus             `json:"status"`
	Data           interface{}            `json:"data,omitempty"`
	Error          string                 `json:"error,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
	CompletedAt    *time.Time             `json:"completedAt,omitempty"`
	ProcessingTime *time.Duration         `json:"processingTime,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// Finished reports whether the task reached SUCCESS or FAILURE
func (r *TaskResult) Finished() bool {
	return r.Status == TaskStatusSuccess || r.Status == TaskStatusFailure
}

// StatusResponse converts the result into the API shape
func (r *TaskResult) StatusResponse() models.AsyncTaskStatusResponse {
	return models.AsyncTaskStatusResponse{
		ProcessID:      r.ProcessID,
		Status:         r.Status,
		Data:           r.Data,
		Error:          r.Error,
		CreatedAt:      r.CreatedAt,
		CompletedAt:    r.CompletedAt,
		ProcessingTime: r.ProcessingTime,
		Metadata:       r.Metadata,
	}
}

// TaskStore defines the interface for storing and retrieving task results.
// Implementations hand out copies so callers never race the workers.
type TaskStore interface {
	Store(ctx context.Context, result *TaskResult) error
	Get(ctx context.Context, processID string) (*TaskResult, error)
	Update(ctx context.Context, result *TaskResult) error
	Delete(ctx context.Context, processID string) error

	// Cleanup removes finished results older than maxAge and returns how
	// many were dropped
	Cleanup(ctx context.Context, maxAge time.Duration) (int, error)

	// List returns all results, oldest first
	List(ctx context.Context) ([]*TaskResult, error)
}

// InMemoryTaskStore implements TaskStore using in-memory storage
type InMemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*TaskResult
	now   func() time.Time
}

func NewInMemoryTaskStore() *InMemoryTaskStore {
	return &InMemoryTaskStore{
		tasks: make(map[string]*TaskResult),
		now:   time.Now,
	}
}

func (s *InMemoryTaskStore) Store(_ context.Context, result *TaskResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[result.ProcessID]; exists {
		return ErrTaskExists
	}
	s.tasks[result.ProcessID] = cloneResult(result)
	return nil
}

func (s *InMemoryTaskStore) Get(_ context.Context, processID string) (*TaskResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, exists := s.tasks[processID]
	if !exists {
		return nil, ErrTaskNotFound
	}
	return cloneResult(result), nil
}

func (s *InMemoryTaskStore) Update(_ context.Context, result *TaskResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[result.ProcessID]; !exists {
		return ErrTaskNotFound
	}
	s.tasks[result.ProcessID] = cloneResult(result)
	return nil
}

func (s *InMemoryTaskStore) Delete(_ context.Context, processID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[processID]; !exists {
		return ErrTaskNotFound
	}
	delete(s.tasks, processID)
	return nil
}

// Cleanup only drops finished tasks; queued and running ones stay until
// their worker reports back
func (s *InMemoryTaskStore) Cleanup(_ context.Context, maxAge time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	removed := 0
	for id, result := range s.tasks {
		if result.Finished() && result.CreatedAt.Before(cutoff) {
			delete(s.tasks, id)
			removed++
		}
	}
	return removed, nil
}

func (s *InMemoryTaskStore) List(_ context.Context) ([]*TaskResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*TaskResult, 0, len(s.tasks))
	for _, result := range s.tasks {
		results = append(results, cloneResult(result))
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})
	return results, nil
}

func cloneResult(r *TaskResult) *TaskResult {
	c := *r
	if r.Metadata != nil {
		c.Metadata = make(map[string]interface{}, len(r.Metadata))
		for k, v := range r.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrTaskExists   = errors.New("task already exists")
	ErrQueueFull    = errors.New("task queue is full")
	ErrNotRunning   = errors.New("task manager is not running")
)
