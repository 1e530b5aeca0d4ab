package user

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"vitastate/internal/agents"
)

// Agent endpoints always answer 200 with a schema-valid payload once the
// request itself is valid. Provider failures are absorbed by fallbacks.

func (h *Handler) DashboardInsightsHandler(c echo.Context) error {
	var req agents.DashboardRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid request"))
	}
	if strings.TrimSpace(req.Goals) == "" {
		return c.JSON(http.StatusBadRequest, errorBody("goals is required"))
	}

	return c.JSON(http.StatusOK, h.agents.Dashboard(c.Request().Context(), req))
}

func (h *Handler) NutritionPlanHandler(c echo.Context) error {
	var req agents.NutritionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid request"))
	}
	if strings.TrimSpace(req.Goal) == "" {
		return c.JSON(http.StatusBadRequest, errorBody("goal is required"))
	}

	return c.JSON(http.StatusOK, h.agents.Nutrition(c.Request().Context(), req))
}

func (h *Handler) WorkoutPlanHandler(c echo.Context) error {
	var req agents.WorkoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid request"))
	}
	if strings.TrimSpace(req.Goal) == "" {
		return c.JSON(http.StatusBadRequest, errorBody("goal is required"))
	}

	return c.JSON(http.StatusOK, h.agents.Workout(c.Request().Context(), req))
}

func (h *Handler) SleepAnalysisHandler(c echo.Context) error {
	var req agents.SleepRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid request"))
	}
	if req.Baseline == "" || req.Goal == "" {
		return c.JSON(http.StatusBadRequest, errorBody("baseline and goal are required"))
	}

	return c.JSON(http.StatusOK, h.agents.Sleep(c.Request().Context(), req))
}

func (h *Handler) DailyInsightHandler(c echo.Context) error {
	var req agents.JournalRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid request"))
	}
	if req.Goal == "" || req.Journal.Date == "" {
		return c.JSON(http.StatusBadRequest, errorBody("goal and journal are required"))
	}

	return c.JSON(http.StatusOK, h.agents.DailyInsight(c.Request().Context(), req))
}

func (h *Handler) DoctorReportHandler(c echo.Context) error {
	var req agents.DoctorReportRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid request"))
	}

	return c.JSON(http.StatusOK, h.agents.DoctorReport(c.Request().Context(), req))
}
