package agents

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitastate/internal/extract"
	"vitastate/internal/llm"
	"vitastate/internal/store"
)

// stubSender replays queued results and records every prompt it receives.
type stubSender struct {
	mu      sync.Mutex
	results []llm.Result
	prompts []Prompt
}

func (s *stubSender) Send(ctx context.Context, sys, user string, temp float64) llm.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts = append(s.prompts, Prompt{System: sys, User: user})
	if len(s.results) == 0 {
		return llm.Failure(llm.ReasonNoAPIKey, llm.ErrNoAPIKey)
	}
	r := s.results[0]
	s.results = s.results[1:]
	return r
}

func (s *stubSender) last() Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompts[len(s.prompts)-1]
}

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, results ...llm.Result) (*Service, *stubSender, store.Store) {
	t.Helper()
	sender := &stubSender{results: results}
	st := store.NewMemory()
	svc := New(sender, st, nil,
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithClock(func() time.Time { return fixedNow }),
	)
	return svc, sender, st
}

func exerciseObj(name string) map[string]any {
	return map[string]any{
		"name": name, "muscle": "Legs", "type": "Strength", "difficulty": "Intermediate",
		"duration_or_sets": "3x10", "calories": "60 kcal",
		"details": map[string]any{"description": "d", "steps": "one step", "benefits": []any{"b"}, "safety": []any{"s"}},
	}
}

func TestDashboardFallsBackWithoutKey(t *testing.T) {
	svc, _, _ := newTestService(t)

	out := svc.Dashboard(context.Background(), DashboardRequest{Goals: "Lose fat"})
	assert.Equal(t, DashboardFallback("Lose fat"), out)
}

func TestDashboardUsesFirstObjectOfList(t *testing.T) {
	resp := []any{map[string]any{
		"body_insight": "a", "activity_insight": "b", "nutrition_insight": "c", "overview": "d",
	}}
	svc, _, _ := newTestService(t, llm.Success(resp))

	out := svc.Dashboard(context.Background(), DashboardRequest{Goals: "Gain muscle"})
	assert.Equal(t, "d", out.Overview)
}

func TestDashboardMissingKeyFallsBack(t *testing.T) {
	svc, _, _ := newTestService(t, llm.Success(map[string]any{"overview": "only"}))

	out := svc.Dashboard(context.Background(), DashboardRequest{Goals: "Sleep"})
	assert.Equal(t, DashboardFallback("Sleep"), out)
}

func TestVeganFallbackHasNoAnimalProducts(t *testing.T) {
	svc, _, _ := newTestService(t)

	plan := svc.Nutrition(context.Background(), NutritionRequest{Goal: "Gain muscle", Diet: "Vegan"})
	require.Equal(t, FallbackTypeVegan, plan.Type)

	options := plan.Meals.All()
	assert.Len(t, options, 8)
	for _, opt := range options {
		lower := strings.ToLower(opt)
		for _, banned := range []string{"chicken", "egg", "paneer", "honey", "yogurt", "cheese", "whey", "salmon"} {
			assert.NotContains(t, lower, banned, opt)
		}
	}
}

func TestNutritionFallbackByDiet(t *testing.T) {
	tests := []struct {
		diet string
		want string
	}{
		{"Vegetarian", FallbackTypeVegetarian},
		{"veg", FallbackTypeVegetarian},
		{"Lacto vegetarian", FallbackTypeVegetarian},
		{"Vegan", FallbackTypeVegan},
		{"vegan vegetarian", FallbackTypeVegan},
		{"Non-Vegetarian", FallbackTypeNonVegetarian},
		{"Non-vegetarian", FallbackTypeNonVegetarian},
		{"non vegetarian", FallbackTypeNonVegetarian},
		{"Non Veg", FallbackTypeNonVegetarian},
		{"nonveg", FallbackTypeNonVegetarian},
		{"", FallbackTypeNonVegetarian},
		{"Keto", FallbackTypeNonVegetarian},
	}
	for _, tt := range tests {
		t.Run(tt.diet, func(t *testing.T) {
			assert.Equal(t, tt.want, NutritionFallback(tt.diet, "x").Type)
		})
	}
}

func TestNutritionDefaultDietServesStandardMenu(t *testing.T) {
	svc, _, _ := newTestService(t)

	plan := svc.Nutrition(context.Background(), NutritionRequest{Goal: "Gain muscle"})
	assert.Equal(t, FallbackTypeNonVegetarian, plan.Type)
	assert.NotContains(t, plan.Meals.Breakfast[0], "Paneer")
}

func TestNutritionMergesStoredTasteMemory(t *testing.T) {
	svc, sender, st := newTestService(t)
	ctx := context.Background()

	_, err := st.RateMeal(ctx, store.DefaultUserID, "Rajma Chawal", store.RatingDislike)
	require.NoError(t, err)

	svc.Nutrition(ctx, NutritionRequest{
		Goal:        "Lose fat",
		TasteMemory: ClientTasteMemory{Likes: []string{"Idli"}},
	})

	p := sender.last()
	assert.Contains(t, p.System, "Disliked Meals (NEVER INCLUDE): ['Rajma Chawal']")
	assert.Contains(t, p.User, "Taste Memory Likes: ['Idli']")
	assert.Contains(t, p.User, "Diet Type: Non-vegetarian")
}

func TestNutritionRejectsDislikedMeal(t *testing.T) {
	meals := map[string]any{
		"Breakfast": []any{"Poha", "Upma"},
		"Lunch":     []any{"Dal rice", "Rajma Chawal bowl"},
		"Dinner":    []any{"Roti sabzi", "Khichdi"},
		"Snack":     []any{"Chana", "Fruit", "Makhana"},
	}
	resp := map[string]any{"intro": "hi", "meals": meals}

	plan, err := ValidateNutrition(resp, nil)
	require.NoError(t, err)
	assert.Len(t, plan.Meals.Snack, OptionsPerMeal)
	assert.Equal(t, "Indian Personalized", plan.Type)

	_, err = ValidateNutrition(resp, []string{"rajma chawal"})
	assert.ErrorIs(t, err, ErrSchema)
}

func TestDislikesMatchWholeWords(t *testing.T) {
	meals := map[string]any{
		"Breakfast": []any{"Option 1: Eggplant Bharta with roti", "Option 2: Moong Dal Cheela"},
		"Lunch":     []any{"Option 1: Sandalwood rice", "Option 2: Veg pulao"},
		"Dinner":    []any{"Option 1: Roti sabzi", "Option 2: Khichdi"},
		"Snack":     []any{"Option 1: Chana", "Option 2: Fruit"},
	}
	resp := map[string]any{"intro": "hi", "meals": meals}

	_, err := ValidateNutrition(resp, []string{"Egg", "Sandal"})
	assert.NoError(t, err)

	_, err = ValidateNutrition(resp, []string{"dal"})
	assert.ErrorIs(t, err, ErrSchema)

	_, err = ValidateNutrition(resp, []string{"eggplant bharta"})
	assert.ErrorIs(t, err, ErrSchema)

	assert.True(t, mentions("Option 1: Boiled Egg, toast", "egg"))
	assert.False(t, mentions("Option 1: Eggplant", "egg"))
	assert.False(t, mentions("anything", "  "))
}

func TestWorkoutPromptFlagsSevereSleepDeficit(t *testing.T) {
	svc, sender, _ := newTestService(t)
	history := []SleepPoint{{Hours: 5.0}, {Hours: 5.0}, {Hours: 5.0}}

	plan := svc.Workout(context.Background(), WorkoutRequest{Goal: "Lose fat", SleepHistory: history})

	p := sender.last()
	assert.Contains(t, p.System, noteSevereSleep)
	assert.Contains(t, p.System, noteFatLoss)

	assert.Equal(t, FallbackRoutineName, plan.RoutineName)
	require.Len(t, plan.Exercises, ExercisesPerPlan)
	assert.NotEqual(t, plan.Exercises[0].Name, plan.Exercises[1].Name)
	for _, ex := range plan.Exercises {
		assert.Equal(t, "Beginner", ex.Difficulty)
	}
}

func TestWorkoutContextBands(t *testing.T) {
	assert.Contains(t, WorkoutContext([]SleepPoint{{Hours: 6.5}}, nil, ""), noteMildSleep)
	assert.Contains(t, WorkoutContext([]SleepPoint{{Hours: 8}}, nil, ""), noteGoodSleep)
	assert.Empty(t, WorkoutContext(nil, nil, "stay active"))

	recent := []store.WorkoutLog{{Name: "Rowing"}, {Name: "Squats"}}
	ctxNote := WorkoutContext(nil, recent, "gain muscle")
	assert.Contains(t, ctxNote, "LAST WORKOUT: Squats. DO NOT REPEAT THIS.")
	assert.Contains(t, ctxNote, noteHypertrophy)
}

func TestWorkoutTruncatesToTwo(t *testing.T) {
	resp := map[string]any{
		"routine_name": "Leg Day",
		"exercises":    []any{exerciseObj("A"), exerciseObj("B"), exerciseObj("C")},
	}
	svc, _, _ := newTestService(t, llm.Success(resp))

	plan := svc.Workout(context.Background(), WorkoutRequest{Goal: "Gain muscle"})
	assert.Equal(t, "Leg Day", plan.RoutineName)
	require.Len(t, plan.Exercises, 2)
	assert.Equal(t, "A", plan.Exercises[0].Name)
	assert.Equal(t, Calories(60), plan.Exercises[0].Calories)
	assert.Equal(t, TextList{"one step"}, plan.Exercises[0].Details.Steps)
}

func TestWorkoutWithOneExerciseFallsBack(t *testing.T) {
	resp := map[string]any{"exercises": []any{exerciseObj("A")}}
	svc, _, _ := newTestService(t, llm.Success(resp))

	plan := svc.Workout(context.Background(), WorkoutRequest{Goal: "Gain muscle"})
	assert.Equal(t, FallbackRoutineName, plan.RoutineName)
	assert.Len(t, plan.Exercises, 2)
}

func TestSleepPromptTrend(t *testing.T) {
	short := SleepPrompt(SleepRequest{Baseline: "7h", Goal: "Recover", History: []SleepPoint{{Date: "d", Hours: 7}}})
	assert.NotContains(t, short.User, "Trend Data")

	long := SleepPrompt(SleepRequest{
		Baseline: "7h", FitbitSleep: "6h", Goal: "Recover",
		History: []SleepPoint{{Date: "a", Hours: 6}, {Date: "b", Hours: 7}, {Date: "c", Hours: 8}},
	})
	assert.Contains(t, long.User, "Current/Baseline: 6h.")
	assert.Contains(t, long.User, "Avg 7.0 hrs")
}

func TestSleepFallback(t *testing.T) {
	svc, _, _ := newTestService(t, llm.Failure(llm.ReasonHTTPError, llm.ErrUpstream))

	assert.Equal(t, SleepFallback(), svc.Sleep(context.Background(), SleepRequest{Baseline: "7h", Goal: "x"}))
}

func TestSleepHistorySynthetic(t *testing.T) {
	svc, _, _ := newTestService(t)

	history, err := svc.SleepHistory(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, history, 5)
	assert.Equal(t, "2025-03-05", history[0].Date)
	for _, p := range history {
		assert.GreaterOrEqual(t, p.Hours, 6.5)
		assert.LessOrEqual(t, p.Hours, 8.5)
	}
}

func TestSleepHistoryClampsPeriod(t *testing.T) {
	svc, _, _ := newTestService(t)

	history, err := svc.SleepHistory(context.Background(), 10_000)
	require.NoError(t, err)
	assert.Len(t, history, MaxSleepPeriod)
}

func TestSleepHistoryFromJournals(t *testing.T) {
	svc, _, st := newTestService(t)
	ctx := context.Background()

	for _, e := range []store.JournalEntry{
		{Date: "2025-03-01", Sleep: "6"},
		{Date: "2025-03-03", Sleep: "7.5 hours"},
		{Date: "2025-03-02", Sleep: "restless"},
		{Date: "2025-03-04", Sleep: "8h"},
	} {
		_, err := st.SaveJournal(ctx, e)
		require.NoError(t, err)
	}

	history, err := svc.SleepHistory(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []SleepPoint{
		{Date: "2025-03-03", Hours: 7.5},
		{Date: "2025-03-04", Hours: 8},
	}, history)
}

func TestDailyInsightCachesOnEntry(t *testing.T) {
	svc, sender, st := newTestService(t, llm.Success(map[string]any{"insight": "Nice work."}))
	ctx := context.Background()

	entry := store.JournalEntry{Date: "2025-03-10", Mood: "Calm", Food: "Dal", Sleep: "7"}
	_, err := st.SaveJournal(ctx, entry)
	require.NoError(t, err)

	out := svc.DailyInsight(ctx, JournalRequest{
		Goal: "Stay fit", Journal: entry,
		Workouts: []store.WorkoutLog{{Name: "Yoga"}},
	})
	assert.Equal(t, "Nice work.", out.Insight)
	assert.Contains(t, sender.last().User, "Workouts: Yoga")

	saved, err := st.GetJournal(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, "Nice work.", saved.Insight)
}

func TestDailyInsightFallbackWithoutEntry(t *testing.T) {
	svc, _, st := newTestService(t)
	ctx := context.Background()

	out := svc.DailyInsight(ctx, JournalRequest{Goal: "x", Journal: store.JournalEntry{Date: "2025-01-01"}})
	assert.Equal(t, JournalFallback(), out)

	_, err := st.GetJournal(ctx, "2025-01-01")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDoctorReportFallbackIncludesSummary(t *testing.T) {
	svc, sender, st := newTestService(t)
	ctx := context.Background()

	require.NoError(t, st.AddPrescription(ctx, store.Prescription{
		ID: "rx1", AppointmentDate: "2025-02-01",
		Summary: store.PrescriptionSummary{Overview: "Thyroid check", Purpose: "Hypothyroidism"},
	}))

	report := svc.DoctorReport(ctx, DoctorReportRequest{})
	assert.Equal(t, "Report for User\n\nSummary: No logs available.", report.Report)
	assert.Contains(t, sender.last().User, "- Thyroid check (2025-02-01): Hypothyroidism")
	assert.Contains(t, sender.last().User, "Reporting Period: 1 month")
}

func TestAnalyzePrescriptionStoresRecord(t *testing.T) {
	resp := map[string]any{
		"diagnosis":   []any{"Hypertension", "Mild anemia"},
		"medications": []any{"Amlodipine 5mg daily", map[string]any{"name": "Iron", "dose": "65mg"}},
		"metrics":     []any{},
		"advice":      "Walk daily.",
	}
	svc, _, st := newTestService(t, llm.Success(resp))
	ctx := context.Background()

	out, err := svc.AnalyzePrescription(ctx, "rx.pdf", "BP 150/95. Amlodipine 5mg.")
	require.NoError(t, err)
	assert.Equal(t, "Walk daily.", out.Analysis["advice"])
	assert.Equal(t, StatusAutoAnalyzed, out.Record.Status)
	assert.Equal(t, "2025-03-10", out.Record.UploadDate)
	assert.Equal(t, "Prescription Analysis from rx.pdf", out.Record.Summary.Overview)
	assert.Contains(t, out.Record.Summary.Purpose, "Hypertension")
	assert.Contains(t, out.Record.Summary.Notes, "Amlodipine 5mg daily")

	list, err := st.ListPrescriptions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, out.Record.ID, list[0].ID)
}

func TestAnalyzePrescriptionFailures(t *testing.T) {
	svc, _, st := newTestService(t, llm.Success(map[string]any{"unrelated": true}))
	ctx := context.Background()

	_, err := svc.AnalyzePrescription(ctx, "a.pdf", "   ")
	assert.ErrorIs(t, err, extract.ErrNoText)

	_, err = svc.AnalyzePrescription(ctx, "a.pdf", "some text")
	assert.ErrorIs(t, err, ErrAnalysisFailed)

	_, err = svc.AnalyzePrescription(ctx, "a.pdf", "some text")
	assert.True(t, errors.Is(err, ErrAnalysisFailed))

	list, err := st.ListPrescriptions(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAddManualPrescription(t *testing.T) {
	svc, _, _ := newTestService(t, llm.Success(map[string]any{"purpose": "Allergy relief"}))
	ctx := context.Background()
	req := ManualPrescriptionRequest{AppointmentDate: "2025-03-01", Provider: "Dr. Rao", Details: "Cetirizine 10mg"}

	rec, err := svc.AddManualPrescription(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, StatusAnalyzed, rec.Status)
	assert.Equal(t, "Allergy relief", rec.Summary.Purpose)
	assert.Equal(t, "Medical Note", rec.Summary.Overview)
	assert.Equal(t, "AI Analyzed", rec.Summary.Notes)

	// Queue is now empty, so the provider reports no key.
	rec, err = svc.AddManualPrescription(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, ManualNoteFallback(), rec.Summary)
}

func TestNormalizeObject(t *testing.T) {
	obj, err := NormalizeObject([]any{map[string]any{"a": 1.0}, map[string]any{"b": 2.0}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0}, obj)

	_, err = NormalizeObject([]any{})
	assert.ErrorIs(t, err, ErrSchema)

	_, err = NormalizeObject("text")
	assert.ErrorIs(t, err, ErrSchema)
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name    string
		check   func() error
		wantErr bool
	}{
		{"sleep ok", func() error {
			_, err := ValidateSleep(map[string]any{"observation": "o", "impact": "i", "action": "a"})
			return err
		}, false},
		{"sleep empty action", func() error {
			_, err := ValidateSleep(map[string]any{"observation": "o", "impact": "i", "action": " "})
			return err
		}, true},
		{"journal missing", func() error {
			_, err := ValidateJournal(map[string]any{"text": "x"})
			return err
		}, true},
		{"report ok", func() error {
			_, err := ValidateDoctorReport([]any{map[string]any{"report": "r"}})
			return err
		}, false},
		{"manual note empty", func() error {
			_, err := ValidateManualNote(map[string]any{})
			return err
		}, true},
		{"workout unnamed", func() error {
			_, err := ValidateWorkout(map[string]any{"exercises": []any{exerciseObj("A"), exerciseObj("")}})
			return err
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrSchema)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
