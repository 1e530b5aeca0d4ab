package user

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitastate/internal/agents"
	"vitastate/internal/fitbit"
	"vitastate/internal/llm"
	"vitastate/internal/store"
)

// offlineSender behaves like a provider with no credential configured.
type offlineSender struct{}

func (offlineSender) Send(ctx context.Context, sys, user string, temp float64) llm.Result {
	return llm.Failure(llm.ReasonNoAPIKey, llm.ErrNoAPIKey)
}

func newTestHandler(t *testing.T) (*Handler, store.Store) {
	t.Helper()
	st := store.NewMemory()
	svc := agents.New(offlineSender{}, st, nil)
	return NewHandler(svc, nil), st
}

func call(t *testing.T, h echo.HandlerFunc, method, target, body string, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(params[i])
		c.SetParamValues(params[i+1])
	}

	require.NoError(t, h(c))
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestVeganNutritionWithoutProvider(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := call(t, h.NutritionPlanHandler, http.MethodPost, "/api/nutrition-plan",
		`{"goal":"Gain muscle","diet":"Vegan","allergies":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	plan := decodeBody[agents.NutritionPlan](t, rec)
	assert.Equal(t, "Strict Vegan Fallback", plan.Type)
	for _, opt := range plan.Meals.All() {
		lower := strings.ToLower(opt)
		for _, banned := range []string{"chicken", "egg", "paneer", "honey", "dairy"} {
			assert.NotContains(t, lower, banned)
		}
	}
}

func TestAgentHandlersRejectMissingFields(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name    string
		handler echo.HandlerFunc
		body    string
	}{
		{"dashboard", h.DashboardInsightsHandler, `{"conditions":[]}`},
		{"nutrition", h.NutritionPlanHandler, `{"diet":"Vegan"}`},
		{"workout", h.WorkoutPlanHandler, `{"activity_level":"High"}`},
		{"sleep", h.SleepAnalysisHandler, `{"goal":"Recover"}`},
		{"journal", h.DailyInsightHandler, `{"goal":"x","journal":{}}`},
		{"malformed", h.DashboardInsightsHandler, `{"goals":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(t, tt.handler, http.MethodPost, "/", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestWorkoutPlanAlwaysTwoExercises(t *testing.T) {
	h, _ := newTestHandler(t)

	body := `{"goal":"Lose weight","sleep_history":[{"date":"a","hours":5.0},{"date":"b","hours":5.0},{"date":"c","hours":5.0}]}`
	rec := call(t, h.WorkoutPlanHandler, http.MethodPost, "/api/workout-plan", body)
	require.Equal(t, http.StatusOK, rec.Code)

	plan := decodeBody[agents.WorkoutPlan](t, rec)
	require.Len(t, plan.Exercises, 2)
	for _, ex := range plan.Exercises {
		assert.Equal(t, "Beginner", ex.Difficulty)
	}
}

func TestWorkoutLogsKeepOrderAndSource(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := call(t, h.LogWorkoutHandler, http.MethodPost, "/api/log-workout",
		`{"name":"Evening Run","duration":30,"intensity":"Medium","date":"2025-03-01","source":"custom"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = call(t, h.LogWorkoutHandler, http.MethodPost, "/api/log-workout",
		`{"name":"Glute Bridges","duration":15,"intensity":"Low","date":"2025-03-02"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h.LogWorkoutHandler, http.MethodPost, "/api/log-workout", `{"duration":10}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h.ListWorkoutsHandler, http.MethodGet, "/api/workouts", "")
	logs := decodeBody[[]store.WorkoutLog](t, rec)
	require.Len(t, logs, 2)
	assert.Equal(t, "Evening Run", logs[0].Name)
	assert.Equal(t, store.SourceCustom, logs[0].Source)
	assert.Equal(t, "Glute Bridges", logs[1].Name)
	assert.Equal(t, store.SourceAI, logs[1].Source)
}

func TestRateMeal(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := call(t, h.RateMealHandler, http.MethodPost, "/api/rate-meal", `{"meal_name":"Poha","rating":"like"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h.RateMealHandler, http.MethodPost, "/api/rate-meal", `{"meal_name":"Poha","rating":"dislike"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[struct {
		Status string            `json:"status"`
		Memory store.TasteMemory `json:"memory"`
	}](t, rec)
	assert.Equal(t, "success", resp.Status)
	assert.Empty(t, resp.Memory.Likes)
	assert.Equal(t, []string{"Poha"}, resp.Memory.Dislikes)

	rec = call(t, h.RateMealHandler, http.MethodPost, "/api/rate-meal", `{"meal_name":"Poha","rating":"meh"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJournalRoundTripPreservesInsight(t *testing.T) {
	h, st := newTestHandler(t)
	ctx := context.Background()

	rec := call(t, h.SaveJournalHandler, http.MethodPost, "/api/journal",
		`{"date":"2025-03-01","mood":"Good","food":"Dal","sleep":"7"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, st.SetJournalInsight(ctx, "2025-03-01", "Steady week."))

	rec = call(t, h.SaveJournalHandler, http.MethodPost, "/api/journal",
		`{"date":"2025-03-01","mood":"Tired","food":"Dal","sleep":"6"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h.GetJournalHandler, http.MethodGet, "/api/journal/2025-03-01", "", "date", "2025-03-01")
	entry := decodeBody[store.JournalEntry](t, rec)
	assert.Equal(t, "Tired", entry.Mood)
	assert.Equal(t, "Steady week.", entry.Insight)

	rec = call(t, h.GetJournalHandler, http.MethodGet, "/api/journal/2024-01-01", "", "date", "2024-01-01")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))

	rec = call(t, h.GetAllJournalsHandler, http.MethodGet, "/api/journal/all", "")
	all := decodeBody[map[string]store.JournalEntry](t, rec)
	assert.Contains(t, all, "2025-03-01")
}

func TestHealthDataMockToken(t *testing.T) {
	h, _ := newTestHandler(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/health-data", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+fitbit.MockToken)
	rec := httptest.NewRecorder()
	require.NoError(t, h.HealthDataHandler(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fitbit.MockActivity(), decodeBody[fitbit.ActivitySummary](t, rec))
}

func TestHealthDataSyncFailure(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer api.Close()

	svc := agents.New(offlineSender{}, store.NewMemory(), nil)
	h := NewHandler(svc, fitbit.NewClient(api.URL, api.Client()))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/health-data", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer real-token")
	rec := httptest.NewRecorder()
	require.NoError(t, h.HealthDataHandler(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sync failed", decodeBody[fitbit.ActivitySummary](t, rec).Error)
}

func TestSleepHistoryPeriod(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := call(t, h.SleepHistoryHandler, http.MethodGet, "/api/sleep-history?period=4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]agents.SleepPoint](t, rec), 4)

	rec = call(t, h.SleepHistoryHandler, http.MethodGet, "/api/sleep-history?period=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h.SleepHistoryHandler, http.MethodGet, "/api/sleep-history?period=100000000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]agents.SleepPoint](t, rec), agents.MaxSleepPeriod)
}

func TestPrescriptionHandlers(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := call(t, h.ManualPrescriptionHandler, http.MethodPost, "/api/prescriptions/manual",
		`{"appointment_date":"2025-03-01","provider":"Dr. Rao","details":"Cetirizine 10mg at night"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	created := decodeBody[struct {
		Prescription store.Prescription `json:"prescription"`
	}](t, rec).Prescription
	assert.Equal(t, "Manual Entry", created.Summary.Overview)

	rec = call(t, h.ManualPrescriptionHandler, http.MethodPost, "/api/prescriptions/manual", `{"provider":"Dr. Rao"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h.ListPrescriptionsHandler, http.MethodGet, "/api/prescriptions", "")
	assert.Len(t, decodeBody[[]store.Prescription](t, rec), 1)

	rec = call(t, h.DeletePrescriptionHandler, http.MethodDelete, "/", "", "id", created.ID)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"deleted"}`, rec.Body.String())

	rec = call(t, h.DeletePrescriptionHandler, http.MethodDelete, "/", "", "id", created.ID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyzePrescriptionRejectsNonPDF(t *testing.T) {
	h, st := newTestHandler(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "notes.pdf")
	require.NoError(t, err)
	fw.Write([]byte("plain text, not a pdf"))
	require.NoError(t, mw.Close())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze-prescription", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	require.NoError(t, h.AnalyzePrescriptionHandler(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "error", decodeBody[map[string]string](t, rec)["status"])

	list, err := st.ListPrescriptions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)

	req = httptest.NewRequest(http.MethodPost, "/api/analyze-prescription", nil)
	rec = httptest.NewRecorder()
	require.NoError(t, h.AnalyzePrescriptionHandler(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
