package agents

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"vitastate/internal/store"
)

/* ====================================================================
                          Request Types
==================================================================== */

// UserProfile is the basic body profile shared by several agents.
type UserProfile struct {
	Name     string  `json:"name"`
	Age      int     `json:"age"`
	HeightCM float64 `json:"height_cm"`
	WeightKG float64 `json:"weight_kg"`
	BMI      float64 `json:"bmi"`
}

func (p *UserProfile) applyDefaults() {
	if p.Name == "" {
		p.Name = "User"
	}
	if p.Age <= 0 {
		p.Age = 30
	}
	if p.HeightCM <= 0 {
		p.HeightCM = 170
	}
	if p.WeightKG <= 0 {
		p.WeightKG = 70
	}
	if p.BMI <= 0 {
		p.BMI = 24.2
	}
}

type ActivityData struct {
	Level     string   `json:"level"`
	Sleep     string   `json:"sleep"`
	Diet      string   `json:"diet"`
	Allergies []string `json:"allergies"`
}

type DashboardRequest struct {
	UserData     UserProfile  `json:"user_data"`
	Goals        string       `json:"goals"`
	Conditions   []string     `json:"conditions"`
	ActivityData ActivityData `json:"activity_data"`
}

// ClientTasteMemory is the taste memory a client may send along with a
// nutrition request. It is merged with the stored memory before prompting.
type ClientTasteMemory struct {
	Likes    []string `json:"likes"`
	Dislikes []string `json:"dislikes"`
}

type NutritionRequest struct {
	UserID        string            `json:"user_id"`
	Goal          string            `json:"goal"`
	Diet          string            `json:"diet"`
	Allergies     []string          `json:"allergies"`
	UserInfo      map[string]any    `json:"user_info"`
	ActivityLevel string            `json:"activity_level"`
	TasteMemory   ClientTasteMemory `json:"taste_memory"`
}

// SleepPoint is one night of sleep.
type SleepPoint struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

type WorkoutRequest struct {
	Goal           string             `json:"goal"`
	ActivityLevel  string             `json:"activity_level"`
	Conditions     []string           `json:"conditions"`
	UserInfo       map[string]any     `json:"user_info"`
	SleepHistory   []SleepPoint       `json:"sleep_history"`
	RecentWorkouts []store.WorkoutLog `json:"recent_workouts"`
	Equipment      string             `json:"equipment"`
	TimeAvailable  string             `json:"time_available"`
}

type SleepRequest struct {
	Baseline    string       `json:"baseline"`
	FitbitSleep string       `json:"fitbit_sleep"`
	Goal        string       `json:"goal"`
	History     []SleepPoint `json:"history"`
}

type JournalRequest struct {
	Goal     string             `json:"goal"`
	Journal  store.JournalEntry `json:"journal"`
	Workouts []store.WorkoutLog `json:"workouts"`
}

type DoctorReportRequest struct {
	UserData   UserProfile `json:"user_data"`
	TimeRange  string      `json:"time_range"`
	Conditions []string    `json:"conditions"`
}

type ManualPrescriptionRequest struct {
	AppointmentDate string `json:"appointment_date"`
	Provider        string `json:"provider"`
	Details         string `json:"details"`
}

/* ====================================================================
                          Response Types
==================================================================== */

type DashboardInsights struct {
	BodyInsight      string `json:"body_insight"`
	ActivityInsight  string `json:"activity_insight"`
	NutritionInsight string `json:"nutrition_insight"`
	Overview         string `json:"overview"`
}

// Meals holds two options per category. Keys are capitalised on the wire.
type Meals struct {
	Breakfast []string `json:"Breakfast"`
	Lunch     []string `json:"Lunch"`
	Dinner    []string `json:"Dinner"`
	Snack     []string `json:"Snack"`
}

func (m *Meals) categories() map[string]*[]string {
	return map[string]*[]string{
		"Breakfast": &m.Breakfast,
		"Lunch":     &m.Lunch,
		"Dinner":    &m.Dinner,
		"Snack":     &m.Snack,
	}
}

// All returns every option in category order.
func (m Meals) All() []string {
	out := make([]string, 0, 8)
	out = append(out, m.Breakfast...)
	out = append(out, m.Lunch...)
	out = append(out, m.Dinner...)
	return append(out, m.Snack...)
}

type NutritionPlan struct {
	Intro string `json:"intro"`
	Meals Meals  `json:"meals"`
	Type  string `json:"type"`
}

type ExerciseDetails struct {
	Description string   `json:"description"`
	Steps       TextList `json:"steps"`
	Benefits    TextList `json:"benefits"`
	Safety      TextList `json:"safety"`
}

type Exercise struct {
	Name           string          `json:"name"`
	Muscle         string          `json:"muscle"`
	Type           string          `json:"type"`
	Difficulty     string          `json:"difficulty"`
	DurationOrSets string          `json:"duration_or_sets"`
	Calories       Calories        `json:"calories"`
	Details        ExerciseDetails `json:"details"`
}

type WorkoutPlan struct {
	RoutineName string     `json:"routine_name"`
	Description string     `json:"description"`
	AIInsight   string     `json:"ai_insight"`
	Exercises   []Exercise `json:"exercises"`
}

type SleepInsight struct {
	Observation string `json:"observation"`
	Impact      string `json:"impact"`
	Action      string `json:"action"`
}

type JournalInsight struct {
	Insight string `json:"insight"`
}

type DoctorReport struct {
	Report string `json:"report"`
}

// PrescriptionAnalysis is the structured extraction from clinical text.
type PrescriptionAnalysis struct {
	Diagnosis   FlexText   `json:"diagnosis"`
	Medications []FlexText `json:"medications"`
	Metrics     []any      `json:"metrics"`
	Advice      FlexText   `json:"advice"`
}

// AnalyzedPrescription is returned after a document has been analysed and stored.
type AnalyzedPrescription struct {
	Analysis map[string]any     `json:"analysis"`
	Record   store.Prescription `json:"prescription_record"`
}

/* ====================================================================
                          Tolerant Scalars
==================================================================== */

// Calories accepts a JSON number or a numeric string such as "40" or "40 kcal".
type Calories int

func (c *Calories) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = 0
		return nil
	}

	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*c = Calories(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("calories: %w", err)
	}
	digits := strings.TrimSpace(s)
	if end := strings.IndexFunc(digits, func(r rune) bool { return (r < '0' || r > '9') && r != '.' }); end >= 0 {
		digits = digits[:end]
	}
	f, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return fmt.Errorf("calories: not a number: %q", s)
	}
	*c = Calories(f)
	return nil
}

// TextList accepts either a list of strings or a single string.
type TextList []string

func (l *TextList) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*l = nil
	case []any:
		out := make(TextList, 0, len(x))
		for _, item := range x {
			out = append(out, flatten(item))
		}
		*l = out
	default:
		*l = TextList{flatten(x)}
	}
	return nil
}

// FlexText accepts a string, a number, a list of strings or an object and
// keeps it as display text.
type FlexText string

func (t *FlexText) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*t = FlexText(flatten(v))
	return nil
}

func flatten(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			if s := flatten(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}
