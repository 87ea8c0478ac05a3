package background

import (
	"time"

	"jobscout/internal/logging/types"
)

// TaskCompletionLogger emits the task lifecycle as structured log entries
type TaskCompletionLogger struct {
	logger types.Logger
}

func NewTaskCompletionLogger(logger types.Logger) *TaskCompletionLogger {
	return &TaskCompletionLogger{logger: logger}
}

// LogTaskCompletion writes one entry per finished task with its final
// status and, for successes, the job count
func (l *TaskCompletionLogger) LogTaskCompletion(result *TaskResult) {
	processingTime := "0s"
	if result.ProcessingTime != nil {
		processingTime = result.ProcessingTime.String()
	}

	fields := map[string]interface{}{
		"process_id":      result.ProcessID,
		"status":          string(result.Status),
		"operation":       string(result.Type),
		"processing_time": processingTime,
	}
	if result.Error != "" {
		fields["error"] = result.Error
	}
	for _, key := range []string{"company", "engine", "total_jobs"} {
		if v, ok := result.Metadata[key]; ok {
			fields[key] = v
		}
	}
	l.logger.Info("Background task completed", fields)
}

func (l *TaskCompletionLogger) LogTaskStart(processID string, taskType TaskType) {
	l.logger.Info("Background task started", map[string]interface{}{
		"process_id": processID,
		"operation":  taskType,
		"status":     string(TaskStatusProcessing),
	})
}

func (l *TaskCompletionLogger) LogTaskAccepted(processID string, taskType TaskType) {
	l.logger.Info("Background task accepted", map[string]interface{}{
		"process_id": processID,
		"operation":  taskType,
		"status":     string(TaskStatusAccepted),
	})
}

func (l *TaskCompletionLogger) LogTaskError(processID string, taskType TaskType, err error) {
	l.logger.Error("Background task failed", map[string]interface{}{
		"process_id": processID,
		"operation":  taskType,
		"status":     string(TaskStatusFailure),
		"error":      err.Error(),
	})
}

func (l *TaskCompletionLogger) LogTaskSuccess(processID string, taskType TaskType, processingTime time.Duration) {
	l.logger.Info("Background task succeeded", map[string]interface{}{
		"process_id":      processID,
		"operation":       taskType,
		"status":          string(TaskStatusSuccess),
		"processing_time": processingTime.String(),
	})
}
