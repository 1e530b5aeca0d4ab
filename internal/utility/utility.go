package utility

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// GetRealIP is a helper function to get the user's real IP address
// It checks proxy headers first.
func GetRealIP(c echo.Context) string {
	// X-Forwarded-For can be a list: "client, proxy1, proxy2"
	if xff := c.Request().Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	if xRealIP := c.Request().Header.Get("X-Real-IP"); xRealIP != "" {
		return xRealIP
	}

	return c.RealIP()
}

// GetLogger returns the request-scoped logger set by the logger middleware,
// or the global logger outside a request.
func GetLogger(c echo.Context) *zerolog.Logger {
	if l, ok := c.Get("logger").(*zerolog.Logger); ok && l != nil {
		return l
	}
	return &log.Logger
}

// ParseSleepHours reads a free-text duration such as "7.5 hours" by keeping
// only digits and dots.
func ParseSleepHours(s string) (float64, error) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	hours, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid sleep duration %q", s)
	}
	return hours, nil
}
