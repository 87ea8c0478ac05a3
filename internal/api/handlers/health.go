package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"jobscout/internal/background"
	"jobscout/internal/logging"
	"jobscout/pkg/models"
)

// Version is reported by the health endpoints; cmd/server overrides it at
// link time
var Version = "dev"

var startTime = time.Now()

// HealthHandler handles liveness checks
func HealthHandler(c echo.Context) error {
	logging.GetGlobalLogger().Debug("Health check requested", map[string]interface{}{"request_id": RequestID(c)})

	return c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   Version,
		Uptime:    time.Since(startTime),
		Checks:    map[string]string{"api": "ok"},
	})
}

// StatusHandler reports the model manager and task manager state. The
// service is degraded, not down, when the provider health check failed.
func StatusHandler(llmStatus LLMStatus, tasks background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		logging.GetGlobalLogger().Debug("Status check requested", map[string]interface{}{"request_id": RequestID(c)})

		checks := map[string]string{"api": "operational"}
		status := "operational"

		if llmStatus == nil {
			checks["llm"] = "disabled"
		} else if llmStatus.IsHealthy() {
			checks["llm"] = "operational"
		} else {
			checks["llm"] = "unhealthy"
			status = "degraded"
		}

		if tasks == nil {
			checks["workers"] = "disabled"
		} else if tasks.IsHealthy() {
			checks["workers"] = "operational"
		} else {
			checks["workers"] = "stopped"
			status = "degraded"
		}

		return c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Timestamp: time.Now(),
			Version:   Version,
			Uptime:    time.Since(startTime),
			Checks:    checks,
		})
	}
}

// LLMStatusHandler returns the rate limiter and fallback state
func LLMStatusHandler(llmStatus LLMStatus) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, llmStatus.Status())
	}
}
