package handlers

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

// ConfigurationsHandler lists every stored selector map
func ConfigurationsHandler(svc ScoutService) echo.HandlerFunc {
	return func(c echo.Context) error {
		configs, err := svc.Configurations(c.Request().Context())
		if err != nil {
			return errorResponse(c, RequestID(c), err)
		}
		if configs == nil {
			configs = []models.CompanyConfiguration{}
		}
		return c.JSON(http.StatusOK, models.ConfigurationListResponse{
			Success:        true,
			Count:          len(configs),
			Configurations: configs,
		})
	}
}

// ConfigurationHandler returns the stored selector map of one company
func ConfigurationHandler(svc ScoutService) echo.HandlerFunc {
	return func(c echo.Context) error {
		company, err := url.PathUnescape(c.Param("company"))
		if err != nil {
			return errorResponse(c, RequestID(c), utils.NewBadRequestError("Invalid company name").Wrap(err))
		}
		cfg, err := svc.Configuration(c.Request().Context(), company)
		if err != nil {
			return errorResponse(c, RequestID(c), err)
		}
		return c.JSON(http.StatusOK, cfg)
	}
}
