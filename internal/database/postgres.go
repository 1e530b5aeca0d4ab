package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"vitastate/internal/config"
	"vitastate/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS taste_memory (
    id BIGSERIAL PRIMARY KEY,
    user_id TEXT NOT NULL,
    meal_name TEXT NOT NULL,
    rating TEXT NOT NULL,
    CONSTRAINT unique_user_meal UNIQUE (user_id, meal_name)
);

CREATE TABLE IF NOT EXISTS journals (
    date TEXT PRIMARY KEY,
    mood TEXT NOT NULL,
    food TEXT NOT NULL,
    sleep TEXT NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    insight TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS workouts (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    duration INTEGER NOT NULL,
    intensity TEXT NOT NULL,
    date TEXT NOT NULL,
    source TEXT NOT NULL,
    notes TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS prescriptions (
    seq BIGSERIAL PRIMARY KEY,
    id TEXT NOT NULL UNIQUE,
    upload_date TEXT NOT NULL,
    appointment_date TEXT NOT NULL,
    provider TEXT NOT NULL,
    details TEXT NOT NULL,
    status TEXT NOT NULL,
    overview TEXT NOT NULL,
    purpose TEXT NOT NULL,
    notes TEXT NOT NULL,
    suggestion TEXT NOT NULL DEFAULT ''
);
`

// Postgres is the store.Store adapter backed by a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ store.Store = (*Postgres)(nil)
	_ Service     = (*Postgres)(nil)
)

// NewPostgres connects, applies the schema and returns the adapter.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig) (*Postgres, error) {
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	log.Info().Str("host", cfg.Host).Str("database", cfg.Database).Msg("Connected to database")
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Driver() string { return "postgres" }

func (p *Postgres) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

func (p *Postgres) Health() map[string]string { return poolHealth(p.pool) }

func (p *Postgres) Close() error {
	log.Info().Msg("Disconnected from database")
	p.pool.Close()
	return nil
}

func (p *Postgres) GetTasteMemory(ctx context.Context, userID string) (store.TasteMemory, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT meal_name, rating FROM taste_memory WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return store.TasteMemory{}, fmt.Errorf("failed to query taste memory: %w", err)
	}
	defer rows.Close()

	mem := store.NewTasteMemory()
	for rows.Next() {
		var meal, rating string
		if err := rows.Scan(&meal, &rating); err != nil {
			return store.TasteMemory{}, fmt.Errorf("failed to scan taste memory: %w", err)
		}
		mem.Rate(meal, store.Rating(rating))
	}
	return mem, rows.Err()
}

func (p *Postgres) RateMeal(ctx context.Context, userID, meal string, r store.Rating) (store.TasteMemory, error) {
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM taste_memory WHERE user_id = $1 AND meal_name = $2`, userID, meal); err != nil {
			return fmt.Errorf("failed to clear rating: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO taste_memory (user_id, meal_name, rating) VALUES ($1, $2, $3)`, userID, meal, string(r)); err != nil {
			return fmt.Errorf("failed to insert rating: %w", err)
		}
		return nil
	})
	if err != nil {
		return store.TasteMemory{}, err
	}
	return p.GetTasteMemory(ctx, userID)
}

func (p *Postgres) GetJournal(ctx context.Context, date string) (store.JournalEntry, error) {
	var e store.JournalEntry
	err := p.pool.QueryRow(ctx,
		`SELECT date, mood, food, sleep, notes, insight FROM journals WHERE date = $1`, date).
		Scan(&e.Date, &e.Mood, &e.Food, &e.Sleep, &e.Notes, &e.Insight)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.JournalEntry{}, store.ErrNotFound
	}
	if err != nil {
		return store.JournalEntry{}, fmt.Errorf("failed to query journal: %w", err)
	}
	return e, nil
}

func (p *Postgres) SaveJournal(ctx context.Context, entry store.JournalEntry) (store.JournalEntry, error) {
	var e store.JournalEntry
	err := p.pool.QueryRow(ctx, `
        INSERT INTO journals (date, mood, food, sleep, notes, insight)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (date) DO UPDATE SET
            mood = EXCLUDED.mood,
            food = EXCLUDED.food,
            sleep = EXCLUDED.sleep,
            notes = EXCLUDED.notes,
            insight = CASE WHEN EXCLUDED.insight = '' THEN journals.insight ELSE EXCLUDED.insight END
        RETURNING date, mood, food, sleep, notes, insight`,
		entry.Date, entry.Mood, entry.Food, entry.Sleep, entry.Notes, entry.Insight).
		Scan(&e.Date, &e.Mood, &e.Food, &e.Sleep, &e.Notes, &e.Insight)
	if err != nil {
		return store.JournalEntry{}, fmt.Errorf("failed to save journal: %w", err)
	}
	return e, nil
}

func (p *Postgres) SetJournalInsight(ctx context.Context, date, insight string) error {
	tag, err := p.pool.Exec(ctx, `UPDATE journals SET insight = $1 WHERE date = $2`, insight, date)
	if err != nil {
		return fmt.Errorf("failed to update insight: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (p *Postgres) ListJournals(ctx context.Context) ([]store.JournalEntry, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT date, mood, food, sleep, notes, insight FROM journals ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("failed to query journals: %w", err)
	}
	defer rows.Close()

	out := []store.JournalEntry{}
	for rows.Next() {
		var e store.JournalEntry
		if err := rows.Scan(&e.Date, &e.Mood, &e.Food, &e.Sleep, &e.Notes, &e.Insight); err != nil {
			return nil, fmt.Errorf("failed to scan journal: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *Postgres) AppendWorkout(ctx context.Context, w store.WorkoutLog) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO workouts (name, duration, intensity, date, source, notes) VALUES ($1, $2, $3, $4, $5, $6)`,
		w.Name, w.Duration, w.Intensity, w.Date, w.Source, w.Notes)
	if err != nil {
		return fmt.Errorf("failed to insert workout: %w", err)
	}
	return nil
}

func (p *Postgres) ListWorkouts(ctx context.Context) ([]store.WorkoutLog, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT name, duration, intensity, date, source, notes FROM workouts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query workouts: %w", err)
	}
	defer rows.Close()

	out := []store.WorkoutLog{}
	for rows.Next() {
		var w store.WorkoutLog
		if err := rows.Scan(&w.Name, &w.Duration, &w.Intensity, &w.Date, &w.Source, &w.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan workout: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (p *Postgres) AddPrescription(ctx context.Context, rx store.Prescription) error {
	_, err := p.pool.Exec(ctx, `
        INSERT INTO prescriptions
            (id, upload_date, appointment_date, provider, details, status, overview, purpose, notes, suggestion)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rx.ID, rx.UploadDate, rx.AppointmentDate, rx.Provider, rx.Details, rx.Status,
		rx.Summary.Overview, rx.Summary.Purpose, rx.Summary.Notes, rx.Summary.Suggestion)
	if err != nil {
		return fmt.Errorf("failed to insert prescription: %w", err)
	}
	return nil
}

func (p *Postgres) ListPrescriptions(ctx context.Context) ([]store.Prescription, error) {
	rows, err := p.pool.Query(ctx, `
        SELECT id, upload_date, appointment_date, provider, details, status, overview, purpose, notes, suggestion
        FROM prescriptions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query prescriptions: %w", err)
	}
	defer rows.Close()

	out := []store.Prescription{}
	for rows.Next() {
		var rx store.Prescription
		if err := rows.Scan(&rx.ID, &rx.UploadDate, &rx.AppointmentDate, &rx.Provider, &rx.Details, &rx.Status,
			&rx.Summary.Overview, &rx.Summary.Purpose, &rx.Summary.Notes, &rx.Summary.Suggestion); err != nil {
			return nil, fmt.Errorf("failed to scan prescription: %w", err)
		}
		out = append(out, rx)
	}
	return out, rows.Err()
}

func (p *Postgres) DeletePrescription(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete prescription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
