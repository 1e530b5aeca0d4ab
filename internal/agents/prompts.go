package agents

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"vitastate/internal/store"
)

// Prompt is the system and user message pair sent for one agent call.
type Prompt struct {
	System string
	User   string
}

// --- Goal Classification ---
const (
	GoalHypertrophy   = "hypertrophy"
	GoalFatLoss       = "fat_loss"
	GoalGeneralHealth = "general_health"
)

// GoalContext classifies a free-text goal. Muscle-gain keywords win over
// fat-loss keywords.
func GoalContext(goal string) string {
	g := strings.ToLower(goal)
	switch {
	case containsAny(g, "muscle", "gain", "hypertrophy"):
		return GoalHypertrophy
	case containsAny(g, "fat", "loss", "lose", "weight"):
		return GoalFatLoss
	default:
		return GoalGeneralHealth
	}
}

/* ====================================================================
                          Dashboard
==================================================================== */

const dashboardSystemPrompt = "You are 'Vita', a calm, observational fitness coach. " +
	"Analyze the user's data and generate insights. " +
	"STRICT SAFETY RULES: " +
	"1. Never diagnose or give medical advice. " +
	"2. Never make absolute claims about the user's health (use 'suggests', 'may', 'appears'). " +
	"3. Output valid JSON with keys: 'body_insight', 'activity_insight', 'nutrition_insight', 'overview'. " +
	"Keep insights under 20 words each. Overview under 40 words."

func DashboardPrompt(req DashboardRequest) Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Profile: Age %d, BMI %.1f\n", req.UserData.Age, req.UserData.BMI)
	fmt.Fprintf(&b, "Goal: %s\n", req.Goals)
	fmt.Fprintf(&b, "Conditions: %s\n", joinOr(req.Conditions, "None"))
	fmt.Fprintf(&b, "Activity Level: %s\n", orDefault(req.ActivityData.Level, "Unknown"))
	fmt.Fprintf(&b, "Sleep Reported: %s\n", orDefault(req.ActivityData.Sleep, "Unknown"))
	fmt.Fprintf(&b, "Diet Pref: %s\n", orDefault(req.ActivityData.Diet, "Unknown"))
	fmt.Fprintf(&b, "Allergies: %s\n", strings.Join(req.ActivityData.Allergies, ", "))
	return Prompt{System: dashboardSystemPrompt, User: b.String()}
}

/* ====================================================================
                          Nutrition
==================================================================== */

// NutritionPrompt embeds the merged taste memory into both messages.
func NutritionPrompt(req NutritionRequest, likes, dislikes []string) Prompt {
	var sys strings.Builder
	sys.WriteString("You are the Nutrition Tracking and Meal Planning Agent for Vita-state.\n")
	sys.WriteString("This is a HARD CONTRACT. Any output that violates diet, allergies, or rules is INVALID.\n\n")

	sys.WriteString("CORE OBJECTIVE:\n")
	sys.WriteString("Generate daily nutrition plans that:\n")
	sys.WriteString("- Respect the user's diet type, primary goal, health conditions, allergies, and preferences\n")
	sys.WriteString("- Are culturally Indian-oriented by default (unless explicitly overridden)\n")
	sys.WriteString("- Provide exactly two options per meal category\n")
	sys.WriteString("- Adapt over time using user ratings and taste memory\n")
	sys.WriteString("- Avoid generic Western gym-diet patterns unless appropriate\n\n")

	sys.WriteString("CULTURAL ORIENTATION RULE (CRITICAL):\n")
	sys.WriteString("The default food context is Indian.\n")
	sys.WriteString("- Primary meal ideas should come from: Indian home cooking, Regional Indian cuisines, Simple tiffin-style meals.\n")
	sys.WriteString("- Western meals may appear ONLY if: They align with user taste memory OR fit the user's goal clearly.\n")
	sys.WriteString("- Protein powders, smoothies, granola bowls, and gym-style meals must NOT be default choices.\n\n")

	sys.WriteString("DIET TYPE ENFORCEMENT (HARD CONSTRAINT):\n")
	sys.WriteString("1. Vegetarian: Exclude all meat, poultry, fish, seafood, meat broths, gelatin.\n")
	sys.WriteString("2. Vegan: Exclude all animal products including dairy, eggs, honey.\n")
	sys.WriteString("3. Non-Vegetarian: Animal products are allowed. MUST suggest a mix. MANDATORY: Include at least one meat/fish/egg option per meal category (Lunch/Dinner).\n\n")

	sys.WriteString("ALLERGY AND HEALTH CONDITION ENFORCEMENT:\n")
	sys.WriteString("Allergies and health conditions are absolute constraints. If a food conflicts with allergies or known conditions, it must NOT appear.\n\n")

	sys.WriteString("PRIMARY GOAL AWARENESS:\n")
	sys.WriteString("- Lose fat: Focus on satiety, fiber, portion control, lighter dinners.\n")
	sys.WriteString("- Gain muscle: Ensure protein presence in every meal (Use Indian protein sources: paneer, dal, curd, soy, legumes, eggs).\n")
	sys.WriteString("- Improve fitness: Balance carbohydrates and protein.\n")
	sys.WriteString("- Improve sleep/recovery: Lighter dinners, easy-to-digest foods.\n\n")

	sys.WriteString("USER TASTE MEMORY:\n")
	fmt.Fprintf(&sys, "- Disliked Meals (NEVER INCLUDE): %s\n", listLiteral(dislikes))
	fmt.Fprintf(&sys, "- Liked Meals (PRIORITIZE): %s\n\n", listLiteral(likes))

	sys.WriteString("OUTPUT FORMAT (STRICT JSON):\n")
	sys.WriteString("You must output valid JSON with the following structure. The 'intro' field should contain the 'Explanation Block' describing how the plan fits the goal and diet.\n")
	sys.WriteString(`{
  "intro": "2-3 sentences explaining the plan (Goal, Diet, Indian orientation).",
  "meals": {
    "Breakfast": ["Option 1: ...", "Option 2: ..."],
    "Lunch": ["Option 1: ...", "Option 2: ..."],
    "Dinner": ["Option 1: ...", "Option 2: ..."],
    "Snack": ["Option 1: ...", "Option 2: ..."]
  },
  "type": "Indian Personalized"
}`)

	var user strings.Builder
	user.WriteString("MANDATORY USER DATA:\n")
	fmt.Fprintf(&user, "Age: %s\n", infoValue(req.UserInfo, "age"))
	fmt.Fprintf(&user, "Sex: %s\n", infoValue(req.UserInfo, "sex"))
	fmt.Fprintf(&user, "Height: %s\n", infoValue(req.UserInfo, "height"))
	fmt.Fprintf(&user, "Weight: %s\n", infoValue(req.UserInfo, "weight"))
	fmt.Fprintf(&user, "Activity Level: %s\n", req.ActivityLevel)
	fmt.Fprintf(&user, "Primary Goal: %s\n", req.Goal)
	fmt.Fprintf(&user, "Diet Type: %s\n", req.Diet)
	fmt.Fprintf(&user, "Allergies: %s\n", listLiteral(req.Allergies))
	fmt.Fprintf(&user, "Taste Memory Likes: %s\n", listLiteral(likes))
	fmt.Fprintf(&user, "Taste Memory Dislikes: %s\n", listLiteral(dislikes))

	return Prompt{System: sys.String(), User: user.String()}
}

/* ====================================================================
                          Workout
==================================================================== */

// Sleep bands for workout intensity.
const (
	SevereSleepDeficitHours = 6.0
	MildSleepDeficitHours   = 7.0
	defaultSleepHours       = 7.0
)

const (
	noteSevereSleep = "SEVERE SLEEP DEFICIT: Force Low Intensity/Recovery/Mobility."
	noteMildSleep   = "MILD SLEEP DEFICIT: Avoid HIIT, focus on steady state or strength."
	noteGoodSleep   = "GOOD SLEEP: Ready for High Intensity/Progressive Overload."
	noteFatLoss     = "GOAL FAT LOSS: Prioritize metabolic demand, circuit style, high density."
	noteHypertrophy = "GOAL HYPERTROPHY: Prioritize time under tension, controlled reps, compound lifts."
)

// AverageSleep returns the mean hours, or 7.0 when there is no history.
func AverageSleep(history []SleepPoint) float64 {
	if len(history) == 0 {
		return defaultSleepHours
	}
	var total float64
	for _, p := range history {
		total += p.Hours
	}
	return total / float64(len(history))
}

// WorkoutContext builds the context annotation placed into the workout
// system prompt: sleep band, last workout and goal emphasis.
func WorkoutContext(history []SleepPoint, recent []store.WorkoutLog, goal string) string {
	var notes []string

	if len(history) > 0 {
		switch avg := AverageSleep(history); {
		case avg < SevereSleepDeficitHours:
			notes = append(notes, noteSevereSleep)
		case avg < MildSleepDeficitHours:
			notes = append(notes, noteMildSleep)
		default:
			notes = append(notes, noteGoodSleep)
		}
	}

	if len(recent) > 0 {
		last := recent[len(recent)-1]
		notes = append(notes, fmt.Sprintf("LAST WORKOUT: %s. DO NOT REPEAT THIS.", orDefault(last.Name, "Unknown")))
	}

	g := strings.ToLower(goal)
	switch {
	case containsAny(g, "lose", "fat"):
		notes = append(notes, noteFatLoss)
	case containsAny(g, "muscle", "gain"):
		notes = append(notes, noteHypertrophy)
	}

	return strings.Join(notes, " | ")
}

func WorkoutPrompt(req WorkoutRequest) Prompt {
	var sys strings.Builder
	sys.WriteString("You are an advanced AI Fitness & Health Intelligence Engine.\n")
	fmt.Fprintf(&sys, "CONTEXT ANALYSIS: %s\n", WorkoutContext(req.SleepHistory, req.RecentWorkouts, req.Goal))
	sys.WriteString("Your task: Generate a highly personalized workout session based on user data AND context.\n")
	sys.WriteString("STRICT RULES:\n")
	sys.WriteString("1. GENERATE EXACTLY TWO (2) WORKOUTS. No more, no less.\n")
	sys.WriteString("2. SAFETY FIRST: If health conditions/injuries exist, STRICTLY modify exercises.\n")
	sys.WriteString("3. ADAPT INTENSITY: If Context says Sleep Deficit, YOU MUST LOWER DIFFICULTY.\n")
	sys.WriteString("4. ANTI-REPETITION: Do NOT suggest the exact same exercises as the 'Last Workout'. VARY the movements.\n")
	sys.WriteString("5. DIET AWARE: If Vegetarian/Vegan, mention protein timing in 'details'.\n")
	sys.WriteString("6. JSON OUTPUT MANDATORY: Return 'routine_name', 'description', 'ai_insight', and 'exercises' list.\n")
	sys.WriteString("   - 'ai_insight': A string with 2-3 short paragraphs explaining WHY these 2 workouts were chosen based on goal, sleep, and recovery. Be supportive and specific.\n")
	sys.WriteString("   - 'exercises': List of EXACTLY 2 exercise objects.\n")
	sys.WriteString("   - Each exercise MUST have: 'name' (string), 'muscle' (target), 'type' (Strength/Cardio/Mobility), 'difficulty' (Beginner/Intermediate), 'duration_or_sets' (e.g. '3x10'), 'calories' (int est), and 'details' object.\n")
	sys.WriteString("   - 'details' object MUST have: 'description' (string), 'steps' (list of strings), 'benefits' (list of strings), 'safety' (list of strings).\n")

	lastWorkout := "None"
	if n := len(req.RecentWorkouts); n > 0 {
		last := req.RecentWorkouts[n-1]
		lastWorkout = fmt.Sprintf("%s (%s)", orDefault(last.Name, "Unknown"), last.Date)
	}

	diet := "Standard"
	if d, ok := req.UserInfo["diet"].(string); ok && d != "" {
		diet = d
	}

	var user strings.Builder
	fmt.Fprintf(&user, "User Profile: %s (Diet: %s)\n", infoLiteral(req.UserInfo), diet)
	fmt.Fprintf(&user, "Primary Goal: %s\n", req.Goal)
	fmt.Fprintf(&user, "Goal Focus: %s\n", GoalContext(req.Goal))
	fmt.Fprintf(&user, "Activity Level: %s\n", req.ActivityLevel)
	fmt.Fprintf(&user, "Health Conditions: %s\n", listLiteral(req.Conditions))
	fmt.Fprintf(&user, "Equipment: %s\n", req.Equipment)
	fmt.Fprintf(&user, "Time Available: %s\n", req.TimeAvailable)
	fmt.Fprintf(&user, "Recent Sleep Avg: %.1fh\n", AverageSleep(req.SleepHistory))
	fmt.Fprintf(&user, "Last Workout Scanned: %s\n", lastWorkout)

	return Prompt{System: sys.String(), User: user.String()}
}

/* ====================================================================
                          Sleep
==================================================================== */

const sleepSystemPrompt = "You are a sleep hygiene expert. Observational only. " +
	"STRICT RULES: " +
	"1. Never use judgmental words like 'bad', 'terrible', 'fail'. " +
	"2. Connect sleep to the specific goal (e.g. fat loss needs sleep for hormone regulation). " +
	"3. IF HISTORY PROVIDED: Analyze the trend (consistency, avg vs baseline). " +
	"4. Output JSON with structured keys: " +
	"'observation' (What happened recently), " +
	"'impact' (Connection to goal), " +
	"'action' (One tiny specific tip)."

// minTrendPoints is the history length from which a trend is reported.
const minTrendPoints = 3

func SleepPrompt(req SleepRequest) Prompt {
	duration := req.Baseline
	if req.FitbitSleep != "" {
		duration = req.FitbitSleep
	}

	trend := ""
	if len(req.History) >= minTrendPoints {
		points := make([]string, len(req.History))
		for i, p := range req.History {
			points[i] = fmt.Sprintf("%s: %.1fh", p.Date, p.Hours)
		}
		trend = fmt.Sprintf("Recent History (Last %d entries): Avg %.1f hrs. Trend Data: %s",
			len(req.History), AverageSleep(req.History), strings.Join(points, ", "))
	}

	return Prompt{
		System: sleepSystemPrompt,
		User:   strings.TrimSpace(fmt.Sprintf("Current/Baseline: %s. Goal: %s. %s", duration, req.Goal, trend)),
	}
}

/* ====================================================================
                          Journal
==================================================================== */

const journalSystemPrompt = "You are a thoughtful mood & habit tracker. " +
	"Structure your response as three plain paragraphs (NO HEADERS, NO JSON KEYS in text output, just the text): " +
	"1. Reflection (Mirror their mood/log). " +
	"2. Connection (How this links to their goal). " +
	"3. Action (One tiny suggestion). " +
	"Output JSON with key: 'insight' containing the full formatted string."

func JournalPrompt(req JournalRequest, historyContext string) Prompt {
	j := req.Journal

	var user strings.Builder
	user.WriteString("Today's Log:\n")
	fmt.Fprintf(&user, "Mood: %s\n", j.Mood)
	fmt.Fprintf(&user, "Food: %s\n", j.Food)
	fmt.Fprintf(&user, "Sleep: %s\n", j.Sleep)
	fmt.Fprintf(&user, "Notes: %s\n", orDefault(j.Notes, "None"))
	if len(req.Workouts) > 0 {
		names := make([]string, 0, len(req.Workouts))
		for _, w := range req.Workouts {
			names = append(names, w.Name)
		}
		fmt.Fprintf(&user, "Workouts: %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(&user, "\nGoal: %s\n", req.Goal)
	fmt.Fprintf(&user, "Recent History Context: %s\n", historyContext)

	return Prompt{System: journalSystemPrompt, User: user.String()}
}

/* ====================================================================
                          Doctor Report
==================================================================== */

const doctorSystemPrompt = "You are a medical scribe. Format a text report for a doctor. " +
	"Key Sections: Patient Info, Observations, Lifestyle Trends (from context), Active Records. " +
	"Tone: Professional, Clinical, Objective. " +
	"Output JSON with key: 'report' containing the full formatted report text."

func DoctorReportPrompt(req DoctorReportRequest, clinicalSummary string, records []store.Prescription) Prompt {
	var user strings.Builder
	fmt.Fprintf(&user, "Patient: %s, %dyo, BMI %.1f\n", req.UserData.Name, req.UserData.Age, req.UserData.BMI)
	fmt.Fprintf(&user, "Reporting Period: %s\n", req.TimeRange)
	fmt.Fprintf(&user, "Conditions: %s\n", listLiteral(req.Conditions))
	fmt.Fprintf(&user, "Clinical History Summary: %s\n", clinicalSummary)

	if len(records) > 0 {
		user.WriteString("Active Records:\n")
		for _, rx := range records {
			fmt.Fprintf(&user, "- %s (%s): %s\n", rx.Summary.Overview, rx.AppointmentDate, rx.Summary.Purpose)
		}
	}

	return Prompt{System: doctorSystemPrompt, User: user.String()}
}

/* ====================================================================
                          Prescriptions
==================================================================== */

const prescriptionSystemPrompt = "You are a holistic health analyst. Analyze the provided clinical text. " +
	"Extract the following into structured JSON: " +
	"'diagnosis' (string or short list), " +
	"'medications' (list of strings with dosage/frequency), " +
	"'metrics' (any vital signs or lab results found, otherwise empty list), " +
	"'advice' (A detailed, supportive 2-3 sentence insight focusing on lifestyle, daily habits, " +
	"and nutrition that can help the user manage the condition or improve general well-being. " +
	"Do NOT give direct medical advice or prescribe treatments, focus on holistic education). " +
	"Do not hallucinate data. If diagnosis is empty or none, provide general healthy lifestyle advice."

func PrescriptionPrompt(clinicalText string) Prompt {
	return Prompt{
		System: prescriptionSystemPrompt,
		User:   "Extract clinical data from this text:\n\n" + clinicalText,
	}
}

const manualNoteSystemPrompt = "You are a medical assistant. Analyze the user's note. " +
	"Extract: 'purpose' (what is this for?), 'suggestion' (patient adherence advice). " +
	"Safety: Do not diagnose. " +
	"Output JSON with keys: 'purpose', 'suggestion', 'overview'."

func ManualNotePrompt(req ManualPrescriptionRequest) Prompt {
	return Prompt{
		System: manualNoteSystemPrompt,
		User:   fmt.Sprintf("Provider: %s\nNote: %s", req.Provider, req.Details),
	}
}

/* ====================================================================
                          Helpers
==================================================================== */

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func joinOr(items []string, def string) string {
	if len(items) == 0 {
		return def
	}
	return strings.Join(items, ", ")
}

// listLiteral renders a list the way it reads best inside a prompt: ['a', 'b'].
func listLiteral(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = "'" + item + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func infoValue(info map[string]any, key string) string {
	v, ok := info[key]
	if !ok || v == nil {
		return "Not provided"
	}
	return flatten(v)
}

// infoLiteral renders a free-form map with sorted keys so prompts are stable.
func infoLiteral(info map[string]any) string {
	keys := slices.Sorted(maps.Keys(info))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, flatten(info[k])))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
