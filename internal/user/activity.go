package user

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"vitastate/internal/agents"
	"vitastate/internal/fitbit"
	"vitastate/internal/utility"
)

// HealthDataHandler returns today's activity. Demo sessions without a real
// token get fixed sample numbers.
func (h *Handler) HealthDataHandler(c echo.Context) error {
	token := fitbit.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if fitbit.IsMockToken(token) {
		return c.JSON(http.StatusOK, fitbit.MockActivity())
	}

	summary, err := h.fitbit.TodayActivity(c.Request().Context(), token)
	if err != nil {
		utility.GetLogger(c).Warn().Err(err).Msg("Fitbit sync failed")
		return c.JSON(http.StatusOK, fitbit.SyncFailed())
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) SleepHistoryHandler(c echo.Context) error {
	period := agents.DefaultSleepPeriod
	if raw := c.QueryParam("period"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p <= 0 {
			return c.JSON(http.StatusBadRequest, errorBody("period must be a positive integer"))
		}
		period = min(p, agents.MaxSleepPeriod)
	}

	history, err := h.agents.SleepHistory(c.Request().Context(), period)
	if err != nil {
		utility.GetLogger(c).Error().Err(err).Msg("Failed to build sleep history")
		return c.JSON(http.StatusInternalServerError, errorBody("Failed to retrieve sleep history"))
	}
	return c.JSON(http.StatusOK, history)
}
