package store

import (
	"context"
	"slices"
	"sort"
	"sync"
)

// Memory is the process-lifetime adapter. Each record kind has its own lock.
type Memory struct {
	tasteMu sync.RWMutex
	taste   map[string]*TasteMemory

	journalMu sync.RWMutex
	journals  map[string]JournalEntry

	workoutMu sync.RWMutex
	workouts  []WorkoutLog

	rxMu          sync.RWMutex
	prescriptions []Prescription
}

func NewMemory() *Memory {
	return &Memory{
		taste:    make(map[string]*TasteMemory),
		journals: make(map[string]JournalEntry),
	}
}

func (m *Memory) Driver() string                 { return "memory" }
func (m *Memory) Ping(ctx context.Context) error { return nil }
func (m *Memory) Close() error                   { return nil }

func (m *Memory) GetTasteMemory(ctx context.Context, userID string) (TasteMemory, error) {
	m.tasteMu.RLock()
	defer m.tasteMu.RUnlock()

	if mem, ok := m.taste[userID]; ok {
		return mem.Clone(), nil
	}
	return NewTasteMemory(), nil
}

func (m *Memory) RateMeal(ctx context.Context, userID, meal string, r Rating) (TasteMemory, error) {
	m.tasteMu.Lock()
	defer m.tasteMu.Unlock()

	mem, ok := m.taste[userID]
	if !ok {
		fresh := NewTasteMemory()
		mem = &fresh
		m.taste[userID] = mem
	}
	mem.Rate(meal, r)
	return mem.Clone(), nil
}

func (m *Memory) GetJournal(ctx context.Context, date string) (JournalEntry, error) {
	m.journalMu.RLock()
	defer m.journalMu.RUnlock()

	entry, ok := m.journals[date]
	if !ok {
		return JournalEntry{}, ErrNotFound
	}
	return entry, nil
}

func (m *Memory) SaveJournal(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	m.journalMu.Lock()
	defer m.journalMu.Unlock()

	if prev, ok := m.journals[entry.Date]; ok && entry.Insight == "" {
		entry.Insight = prev.Insight
	}
	m.journals[entry.Date] = entry
	return entry, nil
}

func (m *Memory) SetJournalInsight(ctx context.Context, date, insight string) error {
	m.journalMu.Lock()
	defer m.journalMu.Unlock()

	entry, ok := m.journals[date]
	if !ok {
		return ErrNotFound
	}
	entry.Insight = insight
	m.journals[date] = entry
	return nil
}

func (m *Memory) ListJournals(ctx context.Context) ([]JournalEntry, error) {
	m.journalMu.RLock()
	defer m.journalMu.RUnlock()

	out := make([]JournalEntry, 0, len(m.journals))
	for _, e := range m.journals {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (m *Memory) AppendWorkout(ctx context.Context, w WorkoutLog) error {
	m.workoutMu.Lock()
	defer m.workoutMu.Unlock()

	m.workouts = append(m.workouts, w)
	return nil
}

func (m *Memory) ListWorkouts(ctx context.Context) ([]WorkoutLog, error) {
	m.workoutMu.RLock()
	defer m.workoutMu.RUnlock()

	return append([]WorkoutLog{}, m.workouts...), nil
}

func (m *Memory) AddPrescription(ctx context.Context, p Prescription) error {
	m.rxMu.Lock()
	defer m.rxMu.Unlock()

	m.prescriptions = append(m.prescriptions, p)
	return nil
}

func (m *Memory) ListPrescriptions(ctx context.Context) ([]Prescription, error) {
	m.rxMu.RLock()
	defer m.rxMu.RUnlock()

	return append([]Prescription{}, m.prescriptions...), nil
}

func (m *Memory) DeletePrescription(ctx context.Context, id string) error {
	m.rxMu.Lock()
	defer m.rxMu.Unlock()

	before := len(m.prescriptions)
	m.prescriptions = slices.DeleteFunc(m.prescriptions, func(p Prescription) bool { return p.ID == id })
	if len(m.prescriptions) == before {
		return ErrNotFound
	}
	return nil
}
