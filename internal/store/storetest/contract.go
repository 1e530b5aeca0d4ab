/*
Package storetest holds the behaviour every store.Store adapter must share.
Adapter packages call Run from their own tests.
*/
package storetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitastate/internal/store"
)

// Run executes the contract. open must return an empty store for each call.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("TasteMemoryRerating", func(t *testing.T) { tasteMemoryRerating(t, open(t)) })
	t.Run("JournalPreservesInsight", func(t *testing.T) { journalPreservesInsight(t, open(t)) })
	t.Run("WorkoutsKeepInsertionOrder", func(t *testing.T) { workoutsKeepInsertionOrder(t, open(t)) })
	t.Run("PrescriptionsAddDelete", func(t *testing.T) { prescriptionsAddDelete(t, open(t)) })
}

func tasteMemoryRerating(t *testing.T, s store.Store) {
	ctx := context.Background()

	mem, err := s.GetTasteMemory(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, mem.Likes)
	assert.NotNil(t, mem.Dislikes)

	_, err = s.RateMeal(ctx, "u1", "Poha", store.RatingDislike)
	require.NoError(t, err)
	mem, err = s.RateMeal(ctx, "u1", "Poha", store.RatingLike)
	require.NoError(t, err)

	assert.Equal(t, []string{"Poha"}, mem.Likes)
	assert.NotContains(t, mem.Dislikes, "Poha")
	assert.NotContains(t, mem.Neutral, "Poha")

	mem, err = s.RateMeal(ctx, "u1", "Poha", store.RatingLike)
	require.NoError(t, err)
	assert.Equal(t, []string{"Poha"}, mem.Likes, "re-rating must not duplicate")

	_, err = s.RateMeal(ctx, "u1", "Upma", store.RatingNeutral)
	require.NoError(t, err)
	mem, err = s.RateMeal(ctx, "u1", "Upma", store.RatingDislike)
	require.NoError(t, err)
	assert.Equal(t, []string{"Upma"}, mem.Dislikes)
	assert.Empty(t, mem.Neutral)

	other, err := s.GetTasteMemory(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other.Likes)
}

func journalPreservesInsight(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.GetJournal(ctx, "2024-05-01")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.SetJournalInsight(ctx, "2024-05-01", "x"), store.ErrNotFound)

	_, err = s.SaveJournal(ctx, store.JournalEntry{Date: "2024-05-01", Mood: "ok", Food: "rice", Sleep: "7 hours"})
	require.NoError(t, err)
	require.NoError(t, s.SetJournalInsight(ctx, "2024-05-01", "Nice consistency."))

	saved, err := s.SaveJournal(ctx, store.JournalEntry{Date: "2024-05-01", Mood: "great", Food: "dal", Sleep: "8 hours"})
	require.NoError(t, err)
	assert.Equal(t, "Nice consistency.", saved.Insight)
	assert.Equal(t, "great", saved.Mood)

	got, err := s.GetJournal(ctx, "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, "Nice consistency.", got.Insight)

	saved, err = s.SaveJournal(ctx, store.JournalEntry{Date: "2024-05-01", Mood: "great", Food: "dal", Sleep: "8 hours", Insight: "New one."})
	require.NoError(t, err)
	assert.Equal(t, "New one.", saved.Insight)

	_, err = s.SaveJournal(ctx, store.JournalEntry{Date: "2024-04-30", Mood: "tired", Food: "toast", Sleep: "5 hours"})
	require.NoError(t, err)

	all, err := s.ListJournals(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "2024-04-30", all[0].Date)
	assert.Equal(t, "2024-05-01", all[1].Date)
}

func workoutsKeepInsertionOrder(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.AppendWorkout(ctx, store.WorkoutLog{Name: "Yoga", Duration: 30, Intensity: "Low", Date: "2024-05-01", Source: store.SourceCustom}))
	require.NoError(t, s.AppendWorkout(ctx, store.WorkoutLog{Name: "Squats", Duration: 20, Intensity: "Medium", Date: "2024-05-02", Source: store.SourceAI}))

	logs, err := s.ListWorkouts(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "Yoga", logs[0].Name)
	assert.Equal(t, store.SourceCustom, logs[0].Source)
	assert.Equal(t, "Squats", logs[1].Name)
	assert.Equal(t, store.SourceAI, logs[1].Source)
}

func prescriptionsAddDelete(t *testing.T, s store.Store) {
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		require.NoError(t, s.AddPrescription(ctx, store.Prescription{
			ID:       fmt.Sprintf("rx-%d", i),
			Provider: "Dr. A",
			Status:   "Analyzed",
			Summary:  store.PrescriptionSummary{Overview: "Manual Entry", Purpose: "Record", Notes: "Raw"},
		}))
	}

	require.NoError(t, s.DeletePrescription(ctx, "rx-1"))
	assert.ErrorIs(t, s.DeletePrescription(ctx, "rx-1"), store.ErrNotFound)

	list, err := s.ListPrescriptions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "rx-2", list[0].ID)
	assert.Equal(t, "Manual Entry", list[0].Summary.Overview)
}
