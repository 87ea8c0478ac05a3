package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"jobscout/internal/llm"
	"jobscout/internal/scout"
	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

// ScoutService is the part of scout.Service the API calls
type ScoutService interface {
	Scout(ctx context.Context, company, url string) (*models.SelectorMap, error)
	Scrape(ctx context.Context, req models.ScrapeRequest) (*scout.ScrapeOutcome, error)
	Configurations(ctx context.Context) ([]models.CompanyConfiguration, error)
	Configuration(ctx context.Context, company string) (*models.CompanyConfiguration, error)
}

// LLMStatus exposes the model manager state
type LLMStatus interface {
	Status() llm.StatusReport
	IsHealthy() bool
}

// RequestID returns the id set by the request middleware, or a fresh one
func RequestID(c echo.Context) string {
	if id, ok := c.Get("request_id").(string); ok && id != "" {
		return id
	}
	id := utils.GenerateRequestID()
	c.Set("request_id", id)
	return id
}

// errorResponse maps err onto its CustomError status and writes the shared
// error body
func errorResponse(c echo.Context, requestID string, err error) error {
	ce := utils.AsCustomError(err)
	return c.JSON(ce.Code, models.ErrorResponse{
		Error:     errorCode(ce.Code),
		Message:   ce.Error(),
		RequestID: requestID,
		Timestamp: time.Now(),
	})
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusRequestTimeout:
		return "timeout"
	case http.StatusUnprocessableEntity:
		return "scraping_failed"
	case http.StatusBadGateway:
		return "llm_failed"
	case http.StatusServiceUnavailable:
		return "unavailable"
	case http.StatusTooManyRequests:
		return "rate_limited"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

// contextError turns a request deadline into a 408
func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return utils.NewTimeoutError("Request timed out").Wrap(err)
	}
	return err
}
