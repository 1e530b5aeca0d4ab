package agents

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"vitastate/internal/store"
)

// ErrSchema means a parsed LLM response is missing keys, has empty values or
// carries the wrong number of elements.
var ErrSchema = errors.New("llm response does not match the agent schema")

// OptionsPerMeal and ExercisesPerPlan are the exact counts returned to clients.
const (
	OptionsPerMeal   = 2
	ExercisesPerPlan = 2
)

func schemaError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSchema, fmt.Sprintf(format, args...))
}

// NormalizeObject turns a parsed response into a single object. Providers
// sometimes answer with a list of candidates; the first object is used.
func NormalizeObject(v any) (map[string]any, error) {
	switch x := v.(type) {
	case map[string]any:
		return x, nil
	case []any:
		if len(x) > 0 {
			if obj, ok := x[0].(map[string]any); ok {
				return obj, nil
			}
		}
		return nil, schemaError("list response has no object element")
	default:
		return nil, schemaError("response is %T, want object", v)
	}
}

// requireKeys checks that every key is present and holds a non-empty value.
func requireKeys(obj map[string]any, keys ...string) error {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok {
			return schemaError("missing key %q", k)
		}
		if isEmpty(v) {
			return schemaError("empty value for %q", k)
		}
	}
	return nil
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	default:
		return false
	}
}

func decode(obj map[string]any, dst any) error {
	b, err := json.Marshal(obj)
	if err != nil {
		return schemaError("re-encode: %v", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return schemaError("decode: %v", err)
	}
	return nil
}

func objectWithKeys(v any, dst any, keys ...string) error {
	obj, err := NormalizeObject(v)
	if err != nil {
		return err
	}
	if err := requireKeys(obj, keys...); err != nil {
		return err
	}
	return decode(obj, dst)
}

/* ====================================================================
                          Per-Agent Validators
==================================================================== */

func ValidateDashboard(v any) (DashboardInsights, error) {
	var out DashboardInsights
	err := objectWithKeys(v, &out, "body_insight", "activity_insight", "nutrition_insight", "overview")
	return out, err
}

// ValidateNutrition requires two non-empty options for every meal category,
// truncating longer lists, and rejects plans that mention a disliked meal.
func ValidateNutrition(v any, dislikes []string) (NutritionPlan, error) {
	var out NutritionPlan
	if err := objectWithKeys(v, &out, "intro", "meals"); err != nil {
		return NutritionPlan{}, err
	}

	for name, options := range out.Meals.categories() {
		kept := make([]string, 0, OptionsPerMeal)
		for _, opt := range *options {
			if strings.TrimSpace(opt) != "" {
				kept = append(kept, opt)
			}
		}
		if len(kept) < OptionsPerMeal {
			return NutritionPlan{}, schemaError("meal %q has %d options, want %d", name, len(kept), OptionsPerMeal)
		}
		*options = kept[:OptionsPerMeal]
	}

	for _, opt := range out.Meals.All() {
		for _, meal := range dislikes {
			if mentions(opt, meal) {
				return NutritionPlan{}, schemaError("plan includes disliked meal %q", meal)
			}
		}
	}

	if strings.TrimSpace(out.Type) == "" {
		out.Type = "Indian Personalized"
	}
	return out, nil
}

// mentions reports whether meal appears in option as a run of whole words,
// ignoring case and punctuation. "Egg" matches "Boiled Egg" but not "Eggplant".
func mentions(option, meal string) bool {
	want := words(meal)
	if len(want) == 0 {
		return false
	}
	have := words(option)
	for i := 0; i+len(want) <= len(have); i++ {
		if slices.Equal(have[i:i+len(want)], want) {
			return true
		}
	}
	return false
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ValidateWorkout requires at least two named exercises and keeps exactly two.
func ValidateWorkout(v any) (WorkoutPlan, error) {
	var out WorkoutPlan
	if err := objectWithKeys(v, &out, "exercises"); err != nil {
		return WorkoutPlan{}, err
	}
	if len(out.Exercises) < ExercisesPerPlan {
		return WorkoutPlan{}, schemaError("%d exercises, want at least %d", len(out.Exercises), ExercisesPerPlan)
	}
	out.Exercises = out.Exercises[:ExercisesPerPlan]
	for i, ex := range out.Exercises {
		if strings.TrimSpace(ex.Name) == "" {
			return WorkoutPlan{}, schemaError("exercise %d has no name", i)
		}
	}
	return out, nil
}

func ValidateSleep(v any) (SleepInsight, error) {
	var out SleepInsight
	err := objectWithKeys(v, &out, "observation", "impact", "action")
	return out, err
}

func ValidateJournal(v any) (JournalInsight, error) {
	var out JournalInsight
	err := objectWithKeys(v, &out, "insight")
	return out, err
}

func ValidateDoctorReport(v any) (DoctorReport, error) {
	var out DoctorReport
	err := objectWithKeys(v, &out, "report")
	return out, err
}

// ValidatePrescription accepts any object carrying at least one of the
// extraction keys. The raw object is returned alongside the typed view.
func ValidatePrescription(v any) (map[string]any, PrescriptionAnalysis, error) {
	obj, err := NormalizeObject(v)
	if err != nil {
		return nil, PrescriptionAnalysis{}, err
	}

	found := false
	for _, k := range []string{"diagnosis", "medications", "metrics", "advice"} {
		if _, ok := obj[k]; ok {
			found = true
			break
		}
	}
	if !found {
		return nil, PrescriptionAnalysis{}, schemaError("no extraction keys present")
	}

	var out PrescriptionAnalysis
	if err := decode(obj, &out); err != nil {
		return nil, PrescriptionAnalysis{}, err
	}
	return obj, out, nil
}

// ValidateManualNote fills missing keys with neutral defaults. Only an empty
// or non-object response is rejected.
func ValidateManualNote(v any) (store.PrescriptionSummary, error) {
	obj, err := NormalizeObject(v)
	if err != nil {
		return store.PrescriptionSummary{}, err
	}
	if len(obj) == 0 {
		return store.PrescriptionSummary{}, schemaError("empty object")
	}

	var note struct {
		Overview   FlexText `json:"overview"`
		Purpose    FlexText `json:"purpose"`
		Suggestion FlexText `json:"suggestion"`
	}
	if err := decode(obj, &note); err != nil {
		return store.PrescriptionSummary{}, err
	}

	return store.PrescriptionSummary{
		Overview:   orDefault(string(note.Overview), "Medical Note"),
		Purpose:    orDefault(string(note.Purpose), "Record"),
		Notes:      "AI Analyzed",
		Suggestion: orDefault(string(note.Suggestion), "Follow provider instructions."),
	}, nil
}
