package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLite persists records in a single SQLite file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path. ":memory:" is accepted.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite has a single writer and ":memory:" is per-connection.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS taste_memory (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id TEXT NOT NULL,
        meal_name TEXT NOT NULL,
        rating TEXT NOT NULL,
        UNIQUE (user_id, meal_name)
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
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL,
        duration INTEGER NOT NULL,
        intensity TEXT NOT NULL,
        date TEXT NOT NULL,
        source TEXT NOT NULL,
        notes TEXT NOT NULL DEFAULT ''
    );

    CREATE TABLE IF NOT EXISTS prescriptions (
        seq INTEGER PRIMARY KEY AUTOINCREMENT,
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

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *SQLite) Driver() string { return "sqlite" }

func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) GetTasteMemory(ctx context.Context, userID string) (TasteMemory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT meal_name, rating FROM taste_memory WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return TasteMemory{}, fmt.Errorf("failed to query taste memory: %w", err)
	}
	defer rows.Close()

	mem := NewTasteMemory()
	for rows.Next() {
		var meal, rating string
		if err := rows.Scan(&meal, &rating); err != nil {
			return TasteMemory{}, fmt.Errorf("failed to scan taste memory: %w", err)
		}
		mem.Rate(meal, Rating(rating))
	}
	return mem, rows.Err()
}

func (s *SQLite) RateMeal(ctx context.Context, userID, meal string, r Rating) (TasteMemory, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TasteMemory{}, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	// Delete then insert so a re-rated meal moves to the end of its new list.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM taste_memory WHERE user_id = ? AND meal_name = ?`, userID, meal); err != nil {
		return TasteMemory{}, fmt.Errorf("failed to clear rating: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO taste_memory (user_id, meal_name, rating) VALUES (?, ?, ?)`, userID, meal, string(r)); err != nil {
		return TasteMemory{}, fmt.Errorf("failed to insert rating: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return TasteMemory{}, err
	}

	return s.GetTasteMemory(ctx, userID)
}

func (s *SQLite) GetJournal(ctx context.Context, date string) (JournalEntry, error) {
	var e JournalEntry
	err := s.db.QueryRowContext(ctx,
		`SELECT date, mood, food, sleep, notes, insight FROM journals WHERE date = ?`, date).
		Scan(&e.Date, &e.Mood, &e.Food, &e.Sleep, &e.Notes, &e.Insight)
	if errors.Is(err, sql.ErrNoRows) {
		return JournalEntry{}, ErrNotFound
	}
	if err != nil {
		return JournalEntry{}, fmt.Errorf("failed to query journal: %w", err)
	}
	return e, nil
}

func (s *SQLite) SaveJournal(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	query := `
        INSERT INTO journals (date, mood, food, sleep, notes, insight)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(date) DO UPDATE SET
            mood = excluded.mood,
            food = excluded.food,
            sleep = excluded.sleep,
            notes = excluded.notes,
            insight = CASE WHEN excluded.insight = '' THEN journals.insight ELSE excluded.insight END
    `
	if _, err := s.db.ExecContext(ctx, query,
		entry.Date, entry.Mood, entry.Food, entry.Sleep, entry.Notes, entry.Insight); err != nil {
		return JournalEntry{}, fmt.Errorf("failed to save journal: %w", err)
	}
	return s.GetJournal(ctx, entry.Date)
}

func (s *SQLite) SetJournalInsight(ctx context.Context, date, insight string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE journals SET insight = ? WHERE date = ?`, insight, date)
	if err != nil {
		return fmt.Errorf("failed to update insight: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) ListJournals(ctx context.Context) ([]JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, mood, food, sleep, notes, insight FROM journals ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("failed to query journals: %w", err)
	}
	defer rows.Close()

	out := []JournalEntry{}
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.Date, &e.Mood, &e.Food, &e.Sleep, &e.Notes, &e.Insight); err != nil {
			return nil, fmt.Errorf("failed to scan journal: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLite) AppendWorkout(ctx context.Context, w WorkoutLog) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workouts (name, duration, intensity, date, source, notes) VALUES (?, ?, ?, ?, ?, ?)`,
		w.Name, w.Duration, w.Intensity, w.Date, w.Source, w.Notes)
	if err != nil {
		return fmt.Errorf("failed to insert workout: %w", err)
	}
	return nil
}

func (s *SQLite) ListWorkouts(ctx context.Context) ([]WorkoutLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, duration, intensity, date, source, notes FROM workouts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query workouts: %w", err)
	}
	defer rows.Close()

	out := []WorkoutLog{}
	for rows.Next() {
		var w WorkoutLog
		if err := rows.Scan(&w.Name, &w.Duration, &w.Intensity, &w.Date, &w.Source, &w.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan workout: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *SQLite) AddPrescription(ctx context.Context, p Prescription) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO prescriptions
            (id, upload_date, appointment_date, provider, details, status, overview, purpose, notes, suggestion)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UploadDate, p.AppointmentDate, p.Provider, p.Details, p.Status,
		p.Summary.Overview, p.Summary.Purpose, p.Summary.Notes, p.Summary.Suggestion)
	if err != nil {
		return fmt.Errorf("failed to insert prescription: %w", err)
	}
	return nil
}

func (s *SQLite) ListPrescriptions(ctx context.Context) ([]Prescription, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, upload_date, appointment_date, provider, details, status, overview, purpose, notes, suggestion
        FROM prescriptions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query prescriptions: %w", err)
	}
	defer rows.Close()

	out := []Prescription{}
	for rows.Next() {
		var p Prescription
		if err := rows.Scan(&p.ID, &p.UploadDate, &p.AppointmentDate, &p.Provider, &p.Details, &p.Status,
			&p.Summary.Overview, &p.Summary.Purpose, &p.Summary.Notes, &p.Summary.Suggestion); err != nil {
			return nil, fmt.Errorf("failed to scan prescription: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLite) DeletePrescription(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM prescriptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete prescription: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
