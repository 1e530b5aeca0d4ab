package agents

import (
	"context"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"vitastate/internal/store"
	"vitastate/internal/utility"
)

// DefaultSleepPeriod is the number of days returned when none is requested.
// Longer requests are clamped to MaxSleepPeriod.
const (
	DefaultSleepPeriod = 7
	MaxSleepPeriod     = 365
)

// Synthetic nights fall in [syntheticSleepMin, syntheticSleepMin+syntheticSleepSpan].
const (
	syntheticSleepMin  = 6.5
	syntheticSleepSpan = 2.0
)

// SleepHistory reads sleep durations from the most recent journal entries,
// oldest first. Entries whose sleep text is not a number are skipped. When
// nothing usable is found a synthetic series of period nights is returned so
// charts have something to draw.
func (s *Service) SleepHistory(ctx context.Context, period int) ([]SleepPoint, error) {
	if period <= 0 {
		period = DefaultSleepPeriod
	}
	period = min(period, MaxSleepPeriod)

	journals, err := s.store.ListJournals(ctx)
	if err != nil {
		return nil, err
	}

	// Newest first, then keep the last period dates.
	slices.SortFunc(journals, func(a, b store.JournalEntry) int { return strings.Compare(b.Date, a.Date) })
	if len(journals) > period {
		journals = journals[:period]
	}

	history := make([]SleepPoint, 0, len(journals))
	for _, e := range journals {
		hours, err := utility.ParseSleepHours(e.Sleep)
		if err != nil {
			continue
		}
		history = append(history, SleepPoint{Date: e.Date, Hours: hours})
	}
	slices.SortFunc(history, func(a, b SleepPoint) int { return strings.Compare(a.Date, b.Date) })

	if len(history) > 0 {
		return history, nil
	}
	return s.syntheticSleep(period), nil
}

func (s *Service) syntheticSleep(period int) []SleepPoint {
	base := s.now().AddDate(0, 0, -period)
	out := make([]SleepPoint, period)

	s.withRand(func(r *rand.Rand) {
		for i := range out {
			hours := syntheticSleepMin + r.Float64()*syntheticSleepSpan
			out[i] = SleepPoint{
				Date:  base.AddDate(0, 0, i).Format(time.DateOnly),
				Hours: math.Round(hours*10) / 10,
			}
		}
	})
	return out
}
