/*
Package store defines the records the API keeps between requests and the
storage port the agents read and write them through. Memory and SQLite
adapters live here; the PostgreSQL adapter lives in package database.
*/
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// DefaultUserID is used when a caller does not identify itself.
const DefaultUserID = "default_user"

var ErrNotFound = errors.New("record not found")

// Rating is a taste-memory verdict on a meal.
type Rating string

const (
	RatingLike    Rating = "like"
	RatingNeutral Rating = "neutral"
	RatingDislike Rating = "dislike"
)

// ParseRating validates a client-supplied rating.
func ParseRating(s string) (Rating, error) {
	switch r := Rating(strings.ToLower(strings.TrimSpace(s))); r {
	case RatingLike, RatingNeutral, RatingDislike:
		return r, nil
	default:
		return "", fmt.Errorf("invalid rating %q: must be like, neutral or dislike", s)
	}
}

// TasteMemory holds a user's meal ratings. A meal name is in at most one list.
type TasteMemory struct {
	Likes    []string `json:"likes"`
	Dislikes []string `json:"dislikes"`
	Neutral  []string `json:"neutral"`
}

// NewTasteMemory returns an empty memory with non-nil lists.
func NewTasteMemory() TasteMemory {
	return TasteMemory{Likes: []string{}, Dislikes: []string{}, Neutral: []string{}}
}

// Rate moves meal into the list for r, removing it from every other list.
func (m *TasteMemory) Rate(meal string, r Rating) {
	m.Likes = remove(m.Likes, meal)
	m.Dislikes = remove(m.Dislikes, meal)
	m.Neutral = remove(m.Neutral, meal)

	switch r {
	case RatingLike:
		m.Likes = append(m.Likes, meal)
	case RatingDislike:
		m.Dislikes = append(m.Dislikes, meal)
	case RatingNeutral:
		m.Neutral = append(m.Neutral, meal)
	}
}

// Clone returns a deep copy.
func (m TasteMemory) Clone() TasteMemory {
	return TasteMemory{
		Likes:    append([]string{}, m.Likes...),
		Dislikes: append([]string{}, m.Dislikes...),
		Neutral:  append([]string{}, m.Neutral...),
	}
}

func remove(list []string, meal string) []string {
	return slices.DeleteFunc(list, func(s string) bool { return s == meal })
}

// JournalEntry is the daily log, keyed by calendar date (YYYY-MM-DD).
type JournalEntry struct {
	Date    string `json:"date"`
	Mood    string `json:"mood"`
	Food    string `json:"food"`
	Sleep   string `json:"sleep"`
	Notes   string `json:"notes,omitempty"`
	Insight string `json:"insight,omitempty"`
}

const (
	SourceAI     = "ai"
	SourceCustom = "custom"
)

// WorkoutLog is one completed session. Logs have no identity beyond order.
type WorkoutLog struct {
	Name      string `json:"name"`
	Duration  int    `json:"duration"`
	Intensity string `json:"intensity"`
	Date      string `json:"date"`
	Source    string `json:"source"`
	Notes     string `json:"notes,omitempty"`
}

// PrescriptionSummary is the structured view shown to the user.
type PrescriptionSummary struct {
	Overview   string `json:"overview"`
	Purpose    string `json:"purpose"`
	Notes      string `json:"notes"`
	Suggestion string `json:"suggestion,omitempty"`
}

type Prescription struct {
	ID              string              `json:"id"`
	UploadDate      string              `json:"upload_date"`
	AppointmentDate string              `json:"appointment_date"`
	Provider        string              `json:"provider"`
	Details         string              `json:"details"`
	Status          string              `json:"status"`
	Summary         PrescriptionSummary `json:"summary"`
}

type TasteMemoryStore interface {
	// GetTasteMemory returns an empty memory for unknown users.
	GetTasteMemory(ctx context.Context, userID string) (TasteMemory, error)
	RateMeal(ctx context.Context, userID, meal string, r Rating) (TasteMemory, error)
}

type JournalStore interface {
	GetJournal(ctx context.Context, date string) (JournalEntry, error)
	// SaveJournal overwrites the entry for its date. An empty Insight keeps
	// the insight already stored for that date.
	SaveJournal(ctx context.Context, entry JournalEntry) (JournalEntry, error)
	// SetJournalInsight returns ErrNotFound when no entry exists for date.
	SetJournalInsight(ctx context.Context, date, insight string) error
	// ListJournals returns entries in ascending date order.
	ListJournals(ctx context.Context) ([]JournalEntry, error)
}

type WorkoutStore interface {
	AppendWorkout(ctx context.Context, w WorkoutLog) error
	ListWorkouts(ctx context.Context) ([]WorkoutLog, error)
}

type PrescriptionStore interface {
	AddPrescription(ctx context.Context, p Prescription) error
	ListPrescriptions(ctx context.Context) ([]Prescription, error)
	// DeletePrescription returns ErrNotFound when id is unknown.
	DeletePrescription(ctx context.Context, id string) error
}

// Store is the full storage port.
type Store interface {
	TasteMemoryStore
	JournalStore
	WorkoutStore
	PrescriptionStore

	Driver() string
	Ping(ctx context.Context) error
	Close() error
}
