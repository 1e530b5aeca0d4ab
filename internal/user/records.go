package user

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"vitastate/internal/agents"
	"vitastate/internal/extract"
	"vitastate/internal/store"
	"vitastate/internal/utility"
)

/* ====================================================================
                          Taste Memory
==================================================================== */

type RateMealRequest struct {
	MealName string `json:"meal_name"`
	Rating   string `json:"rating"`
	UserID   string `json:"user_id"`
}

func (h *Handler) RateMealHandler(c echo.Context) error {
	logger := utility.GetLogger(c)

	var req RateMealRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid request"))
	}
	if strings.TrimSpace(req.MealName) == "" {
		return c.JSON(http.StatusBadRequest, errorBody("meal_name is required"))
	}
	rating, err := store.ParseRating(req.Rating)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	}
	if req.UserID == "" {
		req.UserID = store.DefaultUserID
	}

	mem, err := h.store.RateMeal(c.Request().Context(), req.UserID, req.MealName, rating)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to rate meal")
		return c.JSON(http.StatusInternalServerError, errorBody("Failed to save rating"))
	}

	return c.JSON(http.StatusOK, map[string]any{"status": "success", "memory": mem})
}

/* ====================================================================
                          Journal
==================================================================== */

// GetJournalHandler returns the entry for :date, or null when none exists.
func (h *Handler) GetJournalHandler(c echo.Context) error {
	entry, err := h.store.GetJournal(c.Request().Context(), c.Param("date"))
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusOK, nil)
	}
	if err != nil {
		utility.GetLogger(c).Error().Err(err).Msg("Failed to retrieve journal")
		return c.JSON(http.StatusInternalServerError, errorBody("Failed to retrieve journal"))
	}
	return c.JSON(http.StatusOK, entry)
}

// GetAllJournalsHandler returns every entry keyed by date.
func (h *Handler) GetAllJournalsHandler(c echo.Context) error {
	entries, err := h.store.ListJournals(c.Request().Context())
	if err != nil {
		utility.GetLogger(c).Error().Err(err).Msg("Failed to retrieve journals")
		return c.JSON(http.StatusInternalServerError, errorBody("Failed to retrieve journals"))
	}

	byDate := make(map[string]store.JournalEntry, len(entries))
	for _, e := range entries {
		byDate[e.Date] = e
	}
	return c.JSON(http.StatusOK, byDate)
}

func (h *Handler) SaveJournalHandler(c echo.Context) error {
	var entry store.JournalEntry
	if err := c.Bind(&entry); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid request"))
	}
	if entry.Date == "" {
		return c.JSON(http.StatusBadRequest, errorBody("date is required"))
	}

	saved, err := h.store.SaveJournal(c.Request().Context(), entry)
	if err != nil {
		utility.GetLogger(c).Error().Err(err).Msg("Failed to save journal")
		return c.JSON(http.StatusInternalServerError, errorBody("Failed to save journal"))
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "saved", "entry": saved})
}

/* ====================================================================
                          Workouts
==================================================================== */

func (h *Handler) ListWorkoutsHandler(c echo.Context) error {
	logs, err := h.store.ListWorkouts(c.Request().Context())
	if err != nil {
		utility.GetLogger(c).Error().Err(err).Msg("Failed to retrieve workouts")
		return c.JSON(http.StatusInternalServerError, errorBody("Failed to retrieve workouts"))
	}
	return c.JSON(http.StatusOK, logs)
}

func (h *Handler) LogWorkoutHandler(c echo.Context) error {
	var w store.WorkoutLog
	if err := c.Bind(&w); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid request"))
	}
	if strings.TrimSpace(w.Name) == "" {
		return c.JSON(http.StatusBadRequest, errorBody("name is required"))
	}
	if w.Date == "" {
		w.Date = time.Now().Format(time.DateOnly)
	}
	if w.Source == "" {
		w.Source = store.SourceAI
	}

	if err := h.store.AppendWorkout(c.Request().Context(), w); err != nil {
		utility.GetLogger(c).Error().Err(err).Msg("Failed to log workout")
		return c.JSON(http.StatusInternalServerError, errorBody("Failed to log workout"))
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "success", "log": w})
}

/* ====================================================================
                          Prescriptions
==================================================================== */

func prescriptionError(msg string) map[string]string {
	return map[string]string{"status": "error", "message": msg}
}

// AnalyzePrescriptionHandler accepts a multipart PDF upload in field "file".
func (h *Handler) AnalyzePrescriptionHandler(c echo.Context) error {
	logger := utility.GetLogger(c)

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, prescriptionError("A PDF file is required in field 'file'."))
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, prescriptionError("Could not read upload."))
	}
	defer f.Close()

	text, err := extract.PDFText(f)
	switch {
	case errors.Is(err, extract.ErrNoText):
		return c.JSON(http.StatusUnprocessableEntity, prescriptionError("Could not extract text from PDF."))
	case err != nil:
		logger.Warn().Err(err).Str("filename", fh.Filename).Msg("Unreadable prescription upload")
		return c.JSON(http.StatusUnprocessableEntity, prescriptionError("Could not read PDF document."))
	}
	logger.Info().Int("chars", len(text)).Str("filename", fh.Filename).Msg("Extracted prescription text")

	result, err := h.agents.AnalyzePrescription(c.Request().Context(), fh.Filename, text)
	switch {
	case errors.Is(err, extract.ErrNoText):
		return c.JSON(http.StatusUnprocessableEntity, prescriptionError("Could not extract text from PDF."))
	case errors.Is(err, agents.ErrAnalysisFailed):
		return c.JSON(http.StatusBadGateway, prescriptionError("Failed to analyze prescription."))
	case err != nil:
		logger.Error().Err(err).Msg("Failed to store prescription")
		return c.JSON(http.StatusInternalServerError, prescriptionError("Failed to save prescription."))
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":              "success",
		"analysis":            result.Analysis,
		"prescription_record": result.Record,
	})
}

func (h *Handler) ManualPrescriptionHandler(c echo.Context) error {
	var req agents.ManualPrescriptionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid request"))
	}
	if req.AppointmentDate == "" || req.Provider == "" || req.Details == "" {
		return c.JSON(http.StatusBadRequest, errorBody("appointment_date, provider and details are required"))
	}

	rec, err := h.agents.AddManualPrescription(c.Request().Context(), req)
	if err != nil {
		utility.GetLogger(c).Error().Err(err).Msg("Failed to add prescription")
		return c.JSON(http.StatusInternalServerError, errorBody("Failed to save prescription"))
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "success", "prescription": rec})
}

func (h *Handler) ListPrescriptionsHandler(c echo.Context) error {
	list, err := h.store.ListPrescriptions(c.Request().Context())
	if err != nil {
		utility.GetLogger(c).Error().Err(err).Msg("Failed to retrieve prescriptions")
		return c.JSON(http.StatusInternalServerError, errorBody("Failed to retrieve prescriptions"))
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) DeletePrescriptionHandler(c echo.Context) error {
	err := h.store.DeletePrescription(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, errorBody("Prescription not found"))
	}
	if err != nil {
		utility.GetLogger(c).Error().Err(err).Msg("Failed to delete prescription")
		return c.JSON(http.StatusInternalServerError, errorBody("Failed to delete prescription"))
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}
