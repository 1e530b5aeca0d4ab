package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"vitastate/internal/utility"
)

// maxUploadSize caps request bodies, mainly prescription PDFs.
const maxUploadSize = "10M"

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(maxUploadSize))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.Use(LoggerMiddleware)

	e.GET("/", s.rootHandler)
	e.GET("/health", s.healthHandler)

	// Fitbit OAuth
	authGroup := e.Group("/auth")
	authGroup.GET("/fitbit/login", s.fitbit.Login)
	authGroup.GET("/fitbit/callback", s.fitbit.Callback)

	api := e.Group("/api")

	// Agents
	api.POST("/dashboard-insights", s.user.DashboardInsightsHandler)
	api.POST("/nutrition-plan", s.user.NutritionPlanHandler)
	api.POST("/workout-plan", s.user.WorkoutPlanHandler)
	api.POST("/sleep-analysis", s.user.SleepAnalysisHandler)
	api.POST("/daily-insight", s.user.DailyInsightHandler)
	api.POST("/doctor-report", s.user.DoctorReportHandler)

	// Activity & taste memory
	api.GET("/health-data", s.user.HealthDataHandler)
	api.GET("/sleep-history", s.user.SleepHistoryHandler)
	api.POST("/rate-meal", s.user.RateMealHandler)

	// Journal
	api.GET("/journal/all", s.user.GetAllJournalsHandler)
	api.GET("/journal/:date", s.user.GetJournalHandler)
	api.POST("/journal", s.user.SaveJournalHandler)

	// Workouts
	api.GET("/workouts", s.user.ListWorkoutsHandler)
	api.POST("/log-workout", s.user.LogWorkoutHandler)

	// Prescriptions
	api.POST("/analyze-prescription", s.user.AnalyzePrescriptionHandler)
	api.POST("/prescriptions/manual", s.user.ManualPrescriptionHandler)
	api.GET("/prescriptions", s.user.ListPrescriptionsHandler)
	api.DELETE("/prescriptions/:id", s.user.DeletePrescriptionHandler)

	return e
}

func (s *Server) rootHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "Vita-state Backend is running"})
}

// healthHandler reports store reachability and basic process host stats.
func (s *Server) healthHandler(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	resp := map[string]any{
		"status": "up",
		"store":  s.store.Driver(),
	}

	if err := s.store.Ping(ctx); err != nil {
		utility.GetLogger(c).Error().Err(err).Msg("Store ping failed")
		status = http.StatusServiceUnavailable
		resp["status"] = "down"
		resp["error"] = err.Error()
	}
	if s.db != nil {
		resp["database"] = s.db.Health()
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		resp["memory_used_percent"] = vm.UsedPercent
	}
	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		resp["cpu_percent"] = pct[0]
	}

	return c.JSON(status, resp)
}

// LoggerMiddleware tags every request with an id and attaches a child logger
// to both the echo context and the request context.
func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get(echo.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Response().Header().Set(echo.HeaderXRequestID, requestID)

		logger := log.With().
			Str("request_id", requestID).
			Str("ip", utility.GetRealIP(c)).
			Logger()

		c.Set("logger", &logger)
		c.SetRequest(c.Request().WithContext(logger.WithContext(c.Request().Context())))

		return next(c)
	}
}
