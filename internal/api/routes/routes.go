package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"jobscout/internal/api/handlers"
	"jobscout/internal/api/middleware"
	"jobscout/internal/background"
	"jobscout/internal/config"
	"jobscout/internal/logging"
)

// Dependencies are the services the routes call. LLM and Tasks may be nil;
// the affected endpoints then report the feature as disabled.
type Dependencies struct {
	Service handlers.ScoutService
	LLM     handlers.LLMStatus
	Tasks   background.TaskManager
}

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, deps Dependencies) {
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestValidation())
	e.Use(requestLogger())
	e.Use(middleware.CORSConfig())
	if cfg.Server.RateLimit > 0 {
		e.Use(middleware.RateLimit(cfg.Server.RateLimit))
	}
	// Scrapes walk every page of a listing; they get the write timeout
	e.Use(middleware.SelectiveTimeoutConfig(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, "/api/v1/scrape", "/api/v1/scout"))

	e.GET("/health", handlers.HealthHandler)
	e.GET("/status", handlers.StatusHandler(deps.LLM, deps.Tasks))

	v1 := e.Group("/api/v1")
	{
		if deps.LLM != nil {
			v1.GET("/llm/status", handlers.LLMStatusHandler(deps.LLM))
		}

		v1.POST("/scout", handlers.ScoutHandler(deps.Service))
		v1.POST("/scrape", handlers.ScrapeHandler(deps.Service, deps.Tasks))

		if deps.Tasks != nil {
			v1.GET("/tasks/:id", handlers.TaskStatusHandler(deps.Tasks))
		}

		configs := v1.Group("/configs")
		{
			configs.GET("", handlers.ConfigurationsHandler(deps.Service))
			configs.GET("/:company", handlers.ConfigurationHandler(deps.Service))
		}
	}

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "jobscout",
			"version": handlers.Version,
			"status":  "running",
		})
	})
}

func requestLogger() echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := map[string]interface{}{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"remote_ip":  v.RemoteIP,
				"request_id": v.RequestID,
			}
			logger := logging.GetGlobalLogger()
			if v.Status >= http.StatusInternalServerError {
				logger.Error("Request failed", fields)
			} else {
				logger.Info("Request handled", fields)
			}
			return nil
		},
	})
}
