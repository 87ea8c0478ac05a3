package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"jobscout/internal/api/validation"
	"jobscout/internal/background"
	"jobscout/internal/logging"
	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

// ScrapeHandler runs a scrape inline, or queues it on the task manager when
// the request sets async
func ScrapeHandler(svc ScoutService, tasks background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := RequestID(c)
		logger := logging.LogWithRequestID(requestID)

		var req models.ScrapeRequest
		if err := c.Bind(&req); err != nil {
			logger.Error("Failed to bind request", map[string]interface{}{"error": err.Error()})
			return errorResponse(c, requestID, utils.NewBadRequestError("Invalid request format").Wrap(err))
		}
		if err := validation.Struct(&req); err != nil {
			logger.Warn("Request validation failed", map[string]interface{}{"error": err.Error()})
			return errorResponse(c, requestID, err)
		}

		if req.Async {
			return submitScrape(c, tasks, req, requestID)
		}

		logger.Info("Processing scrape request", map[string]interface{}{
			"company": req.Company,
			"url":     req.URL,
			"engine":  req.Engine,
		})

		outcome, err := svc.Scrape(c.Request().Context(), req)
		if err != nil {
			logger.Error("Scrape failed", map[string]interface{}{"company": req.Company, "error": err.Error()})
			return errorResponse(c, requestID, contextError(err))
		}

		logger.Info("Scrape request completed", map[string]interface{}{
			"company":         req.Company,
			"jobs":            len(outcome.Jobs),
			"pages":           outcome.Pages,
			"terminal_reason": string(outcome.Reason),
			"processing_time": utils.FormatDuration(outcome.Duration),
		})
		return c.JSON(http.StatusOK, outcome.Response(requestID))
	}
}

func submitScrape(c echo.Context, tasks background.TaskManager, req models.ScrapeRequest, requestID string) error {
	logger := logging.LogWithRequestID(requestID)

	if tasks == nil || !tasks.IsHealthy() {
		return c.JSON(http.StatusServiceUnavailable, models.CreateAsyncErrorResponse(
			"workers_unavailable",
			"Background workers are not running",
		))
	}

	processID := utils.GenerateRequestID()
	if err := tasks.SubmitScrapeTask(c.Request().Context(), processID, req); err != nil {
		logger.Error("Failed to submit background scrape task", map[string]interface{}{
			"process_id": processID,
			"error":      err.Error(),
		})
		status := http.StatusInternalServerError
		if errors.Is(err, background.ErrQueueFull) {
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, models.CreateAsyncErrorResponse("task_submission_failed", err.Error(), processID))
	}

	logger.Info("Scrape task accepted", map[string]interface{}{
		"process_id": processID,
		"company":    req.Company,
		"url":        req.URL,
	})
	return c.JSON(http.StatusAccepted, models.CreateAsyncScrapeResponse(processID))
}

// TaskStatusHandler returns the state of a background scrape
func TaskStatusHandler(tasks background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := RequestID(c)
		processID := c.Param("id")

		result, err := tasks.GetTaskResult(c.Request().Context(), processID)
		if err != nil {
			if errors.Is(err, background.ErrTaskNotFound) {
				return errorResponse(c, requestID, utils.NewNotFoundError("task "+processID).Wrap(err))
			}
			return errorResponse(c, requestID, err)
		}
		return c.JSON(http.StatusOK, result.StatusResponse())
	}
}
