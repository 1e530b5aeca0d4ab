package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"vitastate/internal/extract"
	"vitastate/internal/llm"
	"vitastate/internal/store"
)

// ErrAnalysisFailed is returned when an uploaded document could not be
// analysed. No record is stored in that case.
var ErrAnalysisFailed = errors.New("failed to analyze prescription")

const (
	historyCompressThreshold = 3
	documentCompressChars    = 500

	journalTrendInstruction  = "Summarize user's recent mood/diet/consistency trends."
	clinicalInstruction      = "Create a clinical summary of symptom/lifestyle stability for a physician."
	prescriptionInstruction  = "Summarize this medical record, extracting all key health metrics, diagnosis, and prescribed medications accurately."
	noLogsSummary            = "No logs available."
	analyzedDocumentProvider = "Extracted from Document"
)

// Prescription statuses.
const (
	StatusAutoAnalyzed = "Auto-Analyzed"
	StatusAnalyzed     = "Analyzed"
)

/* ====================================================================
                          Dashboard
==================================================================== */

func (s *Service) Dashboard(ctx context.Context, req DashboardRequest) DashboardInsights {
	req.UserData.applyDefaults()

	v, ok := s.ask(ctx, "dashboard", DashboardPrompt(req))
	if !ok {
		return DashboardFallback(req.Goals)
	}
	out, err := ValidateDashboard(v)
	if err != nil {
		s.logFallback(ctx, "dashboard", llm.ReasonMissingKey, err)
		return DashboardFallback(req.Goals)
	}
	return out
}

/* ====================================================================
                          Nutrition
==================================================================== */

// Nutrition merges the client taste memory with the stored one before
// prompting. Stored likes and dislikes are always included.
func (s *Service) Nutrition(ctx context.Context, req NutritionRequest) NutritionPlan {
	req.Diet = orDefault(req.Diet, "Non-vegetarian")
	req.ActivityLevel = orDefault(req.ActivityLevel, "Sedentary")
	req.UserID = orDefault(req.UserID, store.DefaultUserID)

	stored, err := s.store.GetTasteMemory(ctx, req.UserID)
	if err != nil {
		loggerFrom(ctx).Error().Err(err).Str("user_id", req.UserID).Msg("Failed to load taste memory")
		stored = store.NewTasteMemory()
	}
	likes := union(req.TasteMemory.Likes, stored.Likes)
	dislikes := union(req.TasteMemory.Dislikes, stored.Dislikes)

	v, ok := s.ask(ctx, "nutrition", NutritionPrompt(req, likes, dislikes))
	if !ok {
		return NutritionFallback(req.Diet, req.Goal)
	}
	out, err := ValidateNutrition(v, dislikes)
	if err != nil {
		s.logFallback(ctx, "nutrition", llm.ReasonMissingKey, err)
		return NutritionFallback(req.Diet, req.Goal)
	}
	return out
}

// union returns the sorted set union of a and b.
func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, item := range slices.Concat(a, b) {
		if _, dup := seen[item]; dup || item == "" {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	slices.Sort(out)
	return out
}

/* ====================================================================
                          Workout
==================================================================== */

// Workout always returns exactly two exercises.
func (s *Service) Workout(ctx context.Context, req WorkoutRequest) WorkoutPlan {
	req.ActivityLevel = orDefault(req.ActivityLevel, "Sedentary")
	req.Equipment = orDefault(req.Equipment, "Bodyweight/Home")
	req.TimeAvailable = orDefault(req.TimeAvailable, "30-45 mins")

	loggerFrom(ctx).Debug().Str("goal", req.Goal).Int("sleep_points", len(req.SleepHistory)).Msg("Generating workout plan")

	v, ok := s.ask(ctx, "workout", WorkoutPrompt(req))
	if !ok {
		return s.workoutFallback()
	}
	out, err := ValidateWorkout(v)
	if err != nil {
		s.logFallback(ctx, "workout", llm.ReasonMissingKey, err)
		return s.workoutFallback()
	}
	return out
}

func (s *Service) workoutFallback() WorkoutPlan {
	var plan WorkoutPlan
	s.withRand(func(r *rand.Rand) { plan = WorkoutFallback(r) })
	return plan
}

/* ====================================================================
                          Sleep
==================================================================== */

func (s *Service) Sleep(ctx context.Context, req SleepRequest) SleepInsight {
	v, ok := s.ask(ctx, "sleep", SleepPrompt(req))
	if !ok {
		return SleepFallback()
	}
	out, err := ValidateSleep(v)
	if err != nil {
		s.logFallback(ctx, "sleep", llm.ReasonMissingKey, err)
		return SleepFallback()
	}
	return out
}

/* ====================================================================
                          Journal
==================================================================== */

// DailyInsight reflects on today's log and caches the insight on the stored
// entry for that date, when one exists.
func (s *Service) DailyInsight(ctx context.Context, req JournalRequest) JournalInsight {
	logger := loggerFrom(ctx)

	historyContext := ""
	journals, err := s.store.ListJournals(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load journal history")
	}
	if len(journals) > historyCompressThreshold {
		lines := make([]string, len(journals))
		for i, e := range journals {
			lines[i] = fmt.Sprintf("%s: %s, %s", e.Date, e.Mood, e.Food)
		}
		historyContext = s.compressor.Summarize(ctx, lines, journalTrendInstruction)
	}

	out := JournalFallback()
	if v, ok := s.ask(ctx, "journal", JournalPrompt(req, historyContext)); ok {
		if validated, err := ValidateJournal(v); err != nil {
			s.logFallback(ctx, "journal", llm.ReasonMissingKey, err)
		} else {
			out = validated
		}
	}

	if req.Journal.Date != "" {
		err := s.store.SetJournalInsight(ctx, req.Journal.Date, out.Insight)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			logger.Error().Err(err).Str("date", req.Journal.Date).Msg("Failed to cache journal insight")
		}
	}
	return out
}

/* ====================================================================
                          Doctor Report
==================================================================== */

func (s *Service) DoctorReport(ctx context.Context, req DoctorReportRequest) DoctorReport {
	req.UserData.applyDefaults()
	req.TimeRange = orDefault(req.TimeRange, "1 month")

	var (
		journals []store.JournalEntry
		records  []store.Prescription
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		journals, err = s.store.ListJournals(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.store.ListPrescriptions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		loggerFrom(ctx).Error().Err(err).Msg("Failed to gather report history")
	}

	summary := noLogsSummary
	if len(journals) > 0 {
		lines := make([]string, len(journals))
		for i, e := range journals {
			lines[i] = fmt.Sprintf("%s: %s/%s", e.Date, e.Mood, e.Food)
		}
		summary = s.compressor.Summarize(ctx, lines, clinicalInstruction)
	}

	v, ok := s.ask(ctx, "doctor_report", DoctorReportPrompt(req, summary, records))
	if !ok {
		return DoctorReportFallback(req.UserData.Name, summary)
	}
	out, err := ValidateDoctorReport(v)
	if err != nil {
		s.logFallback(ctx, "doctor_report", llm.ReasonMissingKey, err)
		return DoctorReportFallback(req.UserData.Name, summary)
	}
	return out
}

/* ====================================================================
                          Prescriptions
==================================================================== */

// AnalyzePrescription extracts clinical data from a document's text and
// stores the result. Unlike the other agents there is no fallback content:
// empty text yields extract.ErrNoText and a failed analysis ErrAnalysisFailed.
func (s *Service) AnalyzePrescription(ctx context.Context, filename, text string) (AnalyzedPrescription, error) {
	logger := loggerFrom(ctx)

	if strings.TrimSpace(text) == "" {
		return AnalyzedPrescription{}, extract.ErrNoText
	}

	clinical := text
	if len(text) > documentCompressChars && s.compressor.Enabled() {
		clinical = s.compressor.Shrink(ctx, text, prescriptionInstruction)
		logger.Debug().Int("from", len(text)).Int("to", len(clinical)).Msg("Compressed prescription text")
	}

	v, ok := s.ask(ctx, "prescription", PrescriptionPrompt(clinical))
	if !ok {
		return AnalyzedPrescription{}, ErrAnalysisFailed
	}
	raw, analysis, err := ValidatePrescription(v)
	if err != nil {
		s.logFallback(ctx, "prescription", llm.ReasonMissingKey, err)
		return AnalyzedPrescription{}, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}

	details, err := json.Marshal(raw)
	if err != nil {
		return AnalyzedPrescription{}, fmt.Errorf("failed to encode analysis: %w", err)
	}

	meds := make([]string, 0, len(analysis.Medications))
	for _, m := range analysis.Medications {
		meds = append(meds, string(m))
	}

	today := s.today()
	rec := store.Prescription{
		ID:              uuid.NewString(),
		UploadDate:      today,
		AppointmentDate: today,
		Provider:        analyzedDocumentProvider,
		Details:         string(details),
		Status:          StatusAutoAnalyzed,
		Summary: store.PrescriptionSummary{
			Overview:   "Prescription Analysis from " + filename,
			Purpose:    orDefault(string(analysis.Diagnosis), "Clinical Record"),
			Notes:      "Medications: " + strings.Join(meds, ", "),
			Suggestion: orDefault(string(analysis.Advice), "Follow provider instructions."),
		},
	}
	if err := s.store.AddPrescription(ctx, rec); err != nil {
		return AnalyzedPrescription{}, fmt.Errorf("failed to store prescription: %w", err)
	}

	return AnalyzedPrescription{Analysis: raw, Record: rec}, nil
}

// AddManualPrescription summarises a typed-in note. The note is stored even
// when the provider is unavailable, with a plain fallback summary.
func (s *Service) AddManualPrescription(ctx context.Context, req ManualPrescriptionRequest) (store.Prescription, error) {
	summary := ManualNoteFallback()
	if v, ok := s.ask(ctx, "manual_prescription", ManualNotePrompt(req)); ok {
		if validated, err := ValidateManualNote(v); err != nil {
			s.logFallback(ctx, "manual_prescription", llm.ReasonMissingKey, err)
		} else {
			summary = validated
		}
	}

	rec := store.Prescription{
		ID:              uuid.NewString(),
		UploadDate:      s.today(),
		AppointmentDate: req.AppointmentDate,
		Provider:        req.Provider,
		Details:         req.Details,
		Status:          StatusAnalyzed,
		Summary:         summary,
	}
	if err := s.store.AddPrescription(ctx, rec); err != nil {
		return store.Prescription{}, fmt.Errorf("failed to store prescription: %w", err)
	}
	return rec, nil
}
