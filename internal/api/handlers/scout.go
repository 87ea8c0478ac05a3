package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"jobscout/internal/api/validation"
	"jobscout/internal/logging"
	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

// ScoutHandler discovers and stores list selectors for one careers page
func ScoutHandler(svc ScoutService) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		requestID := RequestID(c)
		logger := logging.LogWithRequestID(requestID)

		var req models.ScoutRequest
		if err := c.Bind(&req); err != nil {
			logger.Error("Failed to bind request", map[string]interface{}{"error": err.Error()})
			return errorResponse(c, requestID, utils.NewBadRequestError("Invalid request format").Wrap(err))
		}
		if err := validation.Struct(&req); err != nil {
			logger.Warn("Request validation failed", map[string]interface{}{"error": err.Error()})
			return errorResponse(c, requestID, err)
		}

		logger.Info("Processing scout request", map[string]interface{}{"company": req.Company, "url": req.URL})

		selectors, err := svc.Scout(c.Request().Context(), req.Company, req.URL)
		if err != nil {
			logger.Error("Scout failed", map[string]interface{}{"company": req.Company, "error": err.Error()})
			return errorResponse(c, requestID, contextError(err))
		}

		return c.JSON(http.StatusOK, models.ScoutResponse{
			Success:        true,
			Company:        req.Company,
			URL:            req.URL,
			Selectors:      selectors,
			ProcessingTime: time.Since(start),
			RequestID:      requestID,
		})
	}
}
