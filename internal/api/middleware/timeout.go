package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SelectiveTimeoutConfig applies the long timeout to paths starting with one
// of longPrefixes and the short timeout to everything else. A zero duration
// disables that half.
func SelectiveTimeoutConfig(short, long time.Duration, longPrefixes ...string) echo.MiddlewareFunc {
	isLong := func(c echo.Context) bool {
		path := c.Request().URL.Path
		for _, p := range longPrefixes {
			if strings.HasPrefix(path, p) {
				return true
			}
		}
		return false
	}

	shortMW := middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Skipper: func(c echo.Context) bool { return short <= 0 || isLong(c) },
		Timeout: short,
	})
	longMW := middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Skipper: func(c echo.Context) bool { return long <= 0 || !isLong(c) },
		Timeout: long,
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return shortMW(longMW(next))
	}
}
