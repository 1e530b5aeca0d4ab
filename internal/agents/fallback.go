package agents

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"vitastate/internal/store"
)

// Fallbacks are built from request parameters only and never touch the network.

func DashboardFallback(goals string) DashboardInsights {
	return DashboardInsights{
		BodyInsight:      "Your metrics provide a baseline for progress.",
		ActivityInsight:  "Consistency in movement is key.",
		NutritionInsight: "Focus on nutrient-dense foods aligned with your preferences.",
		Overview:         fmt.Sprintf("Your primary focus is %s. Small consistent steps will yield results.", goals),
	}
}

// --- Nutrition ---
const (
	FallbackTypeVegan         = "Strict Vegan Fallback"
	FallbackTypeVegetarian    = "Strict Vegetarian Fallback"
	FallbackTypeNonVegetarian = "Standard High-Protein Fallback"
)

// DietClass is the menu family a free-text diet maps to.
type DietClass int

const (
	DietNonVegetarian DietClass = iota
	DietVegetarian
	DietVegan
)

// ClassifyDiet maps a free-text diet to a menu family. Negated forms such as
// "Non-Vegetarian" or "non veg" are matched first. Unknown diets are
// non-vegetarian.
func ClassifyDiet(diet string) DietClass {
	d := strings.NewReplacer("-", " ", "_", " ").Replace(strings.ToLower(diet))
	d = strings.Join(strings.Fields(d), " ")

	switch {
	case strings.Contains(d, "non veg"), strings.Contains(d, "nonveg"):
		return DietNonVegetarian
	case strings.Contains(d, "vegan"):
		return DietVegan
	case strings.Contains(d, "vegetarian"), d == "veg", strings.HasPrefix(d, "veg "):
		return DietVegetarian
	default:
		return DietNonVegetarian
	}
}

// NutritionFallback picks one of three fixed menus by ClassifyDiet.
func NutritionFallback(diet, goal string) NutritionPlan {
	switch ClassifyDiet(diet) {
	case DietVegan:
		return NutritionPlan{
			Intro: fmt.Sprintf("A purely plant-based plan to fuel your %s. Focuses on complete proteins and nutrient density without any animal products.", goal),
			Meals: Meals{
				Breakfast: []string{
					"Option 1: Scrambled Tofu with nutritional yeast and spinach",
					"Option 2: Spiced Vegetable Poha with peanuts",
				},
				Lunch: []string{
					"Option 1: Quinoa & Black Bean Burrito Bowl with guacamole",
					"Option 2: Lentil Soup (Dal) with brown rice",
				},
				Dinner: []string{
					"Option 1: Stuffed Bell Peppers with savory rice and beans",
					"Option 2: Vegetable Stir-fry with tempeh",
				},
				Snack: []string{
					"Option 1: Roasted Fox Nuts (Makhana)",
					"Option 2: Apple slices with peanut butter",
				},
			},
			Type: FallbackTypeVegan,
		}

	case DietVegetarian:
		return NutritionPlan{
			Intro: fmt.Sprintf("A tailored vegetarian plan for %s. Balances dairy and plant proteins to keep you satisfied.", goal),
			Meals: Meals{
				Breakfast: []string{
					"Option 1: Paneer Bhurji (Scrambled Cottage Cheese) with toast",
					"Option 2: Greek Yogurt Parfait with granola",
				},
				Lunch: []string{
					"Option 1: Paneer Tikka Salad with mint chutney",
					"Option 2: Lentil & Spinach Stew (Dal Palak) with rice",
				},
				Dinner: []string{
					"Option 1: Palak Paneer with roti",
					"Option 2: Vegetable & Bean Burrito with cheese",
				},
				Snack: []string{
					"Option 1: Greek Yogurt with honey",
					"Option 2: Cheese slices with apple",
				},
			},
			Type: FallbackTypeVegetarian,
		}
	}

	return NutritionPlan{
		Intro: fmt.Sprintf("This plan determines the best fuel for your %s, balancing proteins from various sources.", goal),
		Meals: Meals{
			Breakfast: []string{
				"Option 1: Scrambled Eggs with spinach and smoked salmon",
				"Option 2: Greek Yogurt Parfait with berries",
			},
			Lunch: []string{
				"Option 1: Grilled Chicken Breast with Roasted Sweet Potato",
				"Option 2: Minced Turkey & Quinoa Bowl",
			},
			Dinner: []string{
				"Option 1: Baked Salmon with steamed asparagus",
				"Option 2: Lean Beef Stir-fry with broccoli",
			},
			Snack: []string{
				"Option 1: Whey Protein Shake",
				"Option 2: Jerky (Beef or Turkey)",
			},
		},
		Type: FallbackTypeNonVegetarian,
	}
}

// --- Workout ---

// FallbackRoutineName marks a plan that came from the offline pool.
const FallbackRoutineName = "Fallback Dynamic Routine"

// exercisePool holds safe bodyweight moves. Every entry is Beginner level.
var exercisePool = []Exercise{
	{
		Name: "Bodyweight Squats", Muscle: "Legs", Type: "Strength",
		Difficulty: "Beginner", Calories: 40, DurationOrSets: "3x12",
		Details: ExerciseDetails{Description: "Standard squat.", Steps: TextList{"Hips back", "Chest up"}, Benefits: TextList{"Leg strength"}, Safety: TextList{"Knees out"}},
	},
	{
		Name: "Push-Ups (or Knee Push-Ups)", Muscle: "Chest/Triceps", Type: "Strength",
		Difficulty: "Beginner", Calories: 50, DurationOrSets: "3x10",
		Details: ExerciseDetails{Description: "Classic push movement.", Steps: TextList{"Plank position", "Lower chest"}, Benefits: TextList{"Upper body"}, Safety: TextList{"Core tight"}},
	},
	{
		Name: "Glute Bridges", Muscle: "Glutes", Type: "Strength",
		Difficulty: "Beginner", Calories: 30, DurationOrSets: "3x15",
		Details: ExerciseDetails{Description: "Hip extension on floor.", Steps: TextList{"Lying on back", "Lift hips"}, Benefits: TextList{"Glute activation"}, Safety: TextList{"Squeeze glutes"}},
	},
	{
		Name: "Bird-Dog", Muscle: "Core/Back", Type: "Mobility",
		Difficulty: "Beginner", Calories: 20, DurationOrSets: "20 reps total",
		Details: ExerciseDetails{Description: "Core stability.", Steps: TextList{"All fours", "Opposite arm/leg extend"}, Benefits: TextList{"Spine health"}, Safety: TextList{"Neutral spine"}},
	},
	{
		Name: "Lunges", Muscle: "Legs", Type: "Strength",
		Difficulty: "Beginner", Calories: 45, DurationOrSets: "2x10/leg",
		Details: ExerciseDetails{Description: "Unilateral leg work.", Steps: TextList{"Step forward", "Drop knee"}, Benefits: TextList{"Balance", "Strength"}, Safety: TextList{"Torso upright"}},
	},
	{
		Name: "Plank", Muscle: "Core", Type: "Strength",
		Difficulty: "Beginner", Calories: 20, DurationOrSets: "3x45s",
		Details: ExerciseDetails{Description: "Static core hold.", Steps: TextList{"Forearms down", "Body straight"}, Benefits: TextList{"Core stability"}, Safety: TextList{"No sagging hips"}},
	},
}

// ExercisePool returns a copy of the offline exercise pool.
func ExercisePool() []Exercise {
	out := make([]Exercise, len(exercisePool))
	copy(out, exercisePool)
	return out
}

// WorkoutFallback samples two distinct exercises from the pool using r.
func WorkoutFallback(r *rand.Rand) WorkoutPlan {
	perm := r.Perm(len(exercisePool))
	picked := make([]Exercise, 0, ExercisesPerPlan)
	for _, i := range perm[:ExercisesPerPlan] {
		picked = append(picked, exercisePool[i])
	}

	return WorkoutPlan{
		RoutineName: FallbackRoutineName,
		Description: "AI service unavailable, generated safe tailored options.",
		AIInsight:   "We couldn't reach the AI brain right now, but here are two effective exercises to keep your streak alive.",
		Exercises:   picked,
	}
}

// --- Sleep, Journal, Reports ---

func SleepFallback() SleepInsight {
	return SleepInsight{
		Observation: "Sleep data is sparse right now.",
		Impact:      "Consistent sleep helps recover from daily stress.",
		Action:      "Try to log your sleep daily for better insights.",
	}
}

const journalFallbackInsight = "Thank you for logging. Consistency is the most important step."

func JournalFallback() JournalInsight {
	return JournalInsight{Insight: journalFallbackInsight}
}

func DoctorReportFallback(name, clinicalSummary string) DoctorReport {
	return DoctorReport{Report: fmt.Sprintf("Report for %s\n\nSummary: %s", name, clinicalSummary)}
}

// ManualNoteFallback is the summary stored when a note could not be analysed.
func ManualNoteFallback() store.PrescriptionSummary {
	return store.PrescriptionSummary{
		Overview:   "Manual Entry",
		Purpose:    "Record",
		Notes:      "Raw",
		Suggestion: "Follow guidelines.",
	}
}
