// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/keydrill/keydrill/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for profile data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			target_accuracy REAL NOT NULL,
			target_wpm INTEGER NOT NULL,
			backspace_penalty INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS unlocked_lessons (
			lesson_id TEXT PRIMARY KEY,
			position INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS best_scores (
			lesson_id TEXT PRIMARY KEY,
			wpm INTEGER NOT NULL,
			acc REAL NOT NULL,
			stars INTEGER NOT NULL,
			at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS last_attempt (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			lesson_id TEXT NOT NULL,
			attempt_id TEXT NOT NULL,
			at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS attempts (
			id TEXT PRIMARY KEY,
			lesson_id TEXT NOT NULL,
			at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			total_keystrokes INTEGER NOT NULL,
			text_length INTEGER NOT NULL,
			wpm INTEGER NOT NULL,
			acc REAL NOT NULL,
			stars INTEGER NOT NULL,
			raw_input TEXT NOT NULL,
			max_combo INTEGER NOT NULL,
			mistakes INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_lesson ON attempts(lesson_id);`,
		`CREATE TABLE IF NOT EXISTS attempt_errors (
			attempt_id TEXT NOT NULL,
			char TEXT NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (attempt_id, char)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the full profile. Missing or unreadable rows degrade to
// defaults instead of failing the program; only infrastructure errors
// propagate.
func (s *Store) Load(ctx context.Context) (model.State, error) {
	state := model.State{
		Settings: model.DefaultSettings(),
		Progress: model.Progress{Best: map[string]model.BestScore{}},
		Attempts: model.AttemptsByLesson{},
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT target_accuracy, target_wpm, backspace_penalty FROM settings WHERE id = 1`)
	var penalty int
	var settings model.Settings
	switch err := row.Scan(&settings.TargetAccuracy, &settings.TargetWpm, &penalty); err {
	case nil:
		settings.BackspacePenalty = penalty != 0
		state.Settings = settings
	case sql.ErrNoRows:
		// Fresh profile.
	default:
		// Unreadable row: keep defaults, same as corrupt timestamps below.
	}

	unlocked, err := s.loadUnlocked(ctx)
	if err != nil {
		return model.State{}, err
	}
	state.Progress.Unlocked = unlocked

	best, err := s.loadBest(ctx)
	if err != nil {
		return model.State{}, err
	}
	state.Progress.Best = best

	last, err := s.loadLastAttempt(ctx)
	if err != nil {
		return model.State{}, err
	}
	state.Progress.LastAttempt = last

	attempts, err := s.loadAttempts(ctx)
	if err != nil {
		return model.State{}, err
	}
	state.Attempts = attempts

	return state, nil
}

func (s *Store) loadUnlocked(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lesson_id FROM unlocked_lessons ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var unlocked []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		unlocked = append(unlocked, id)
	}
	return unlocked, rows.Err()
}

func (s *Store) loadBest(ctx context.Context) (map[string]model.BestScore, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lesson_id, wpm, acc, stars, at FROM best_scores`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	best := map[string]model.BestScore{}
	for rows.Next() {
		var id, at string
		var score model.BestScore
		if err := rows.Scan(&id, &score.WPM, &score.Acc, &score.Stars, &at); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			// Corrupt timestamp: drop the row rather than fail the load.
			continue
		}
		score.At = parsed
		best[id] = score
	}
	return best, rows.Err()
}

func (s *Store) loadLastAttempt(ctx context.Context) (*model.LastAttempt, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT lesson_id, attempt_id, at FROM last_attempt WHERE id = 1`)
	var last model.LastAttempt
	var at string
	switch err := row.Scan(&last.LessonID, &last.AttemptID, &at); err {
	case nil:
	case sql.ErrNoRows:
		return nil, nil
	default:
		return nil, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return nil, nil
	}
	last.At = parsed
	return &last, nil
}

func (s *Store) loadAttempts(ctx context.Context) (model.AttemptsByLesson, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lesson_id, at, duration_ms, correct, total_keystrokes, text_length,
			wpm, acc, stars, raw_input, max_combo, mistakes
		 FROM attempts ORDER BY rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	attempts := model.AttemptsByLesson{}
	for rows.Next() {
		var attempt model.Attempt
		var at string
		if err := rows.Scan(&attempt.ID, &attempt.LessonID, &at, &attempt.DurationMs,
			&attempt.Correct, &attempt.TotalKeystrokes, &attempt.TextLength,
			&attempt.WPM, &attempt.Acc, &attempt.Stars, &attempt.RawInput,
			&attempt.MaxCombo, &attempt.Mistakes); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			continue
		}
		attempt.At = parsed
		attempt.Errors = model.ErrorMap{}
		attempts[attempt.LessonID] = append(attempts[attempt.LessonID], attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachErrors(ctx, attempts); err != nil {
		return nil, err
	}
	return attempts, nil
}

func (s *Store) attachErrors(ctx context.Context, attempts model.AttemptsByLesson) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT attempt_id, char, count FROM attempt_errors`)
	if err != nil {
		return err
	}
	defer closeRows(rows)

	byID := map[string]model.ErrorMap{}
	for rows.Next() {
		var id, char string
		var count int
		if err := rows.Scan(&id, &char, &count); err != nil {
			return err
		}
		if byID[id] == nil {
			byID[id] = model.ErrorMap{}
		}
		byID[id][char] = count
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, history := range attempts {
		for i := range history {
			if errs, ok := byID[history[i].ID]; ok {
				history[i].Errors = errs
			}
		}
	}
	return nil
}

// SaveSettings upserts the single settings row.
func (s *Store) SaveSettings(ctx context.Context, settings model.Settings) error {
	penalty := 0
	if settings.BackspacePenalty {
		penalty = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (id, target_accuracy, target_wpm, backspace_penalty)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			target_accuracy = excluded.target_accuracy,
			target_wpm = excluded.target_wpm,
			backspace_penalty = excluded.backspace_penalty`,
		settings.TargetAccuracy, settings.TargetWpm, penalty)
	return err
}

// SaveProgress rewrites the progression tables in one transaction.
func (s *Store) SaveProgress(ctx context.Context, progress model.Progress) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollbackOnErr(tx, &err)

	if err = s.writeProgress(ctx, tx, progress); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) writeProgress(ctx context.Context, tx *sql.Tx, progress model.Progress) error {
	for _, stmt := range []string{
		`DELETE FROM unlocked_lessons`,
		`DELETE FROM best_scores`,
		`DELETE FROM last_attempt`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	for i, id := range progress.Unlocked {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO unlocked_lessons (lesson_id, position) VALUES (?, ?)`, id, i); err != nil {
			return err
		}
	}
	for id, score := range progress.Best {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO best_scores (lesson_id, wpm, acc, stars, at) VALUES (?, ?, ?, ?, ?)`,
			id, score.WPM, score.Acc, score.Stars, score.At.Format(time.RFC3339Nano)); err != nil {
			return err
		}
	}
	if progress.LastAttempt != nil {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO last_attempt (id, lesson_id, attempt_id, at) VALUES (1, ?, ?, ?)`,
			progress.LastAttempt.LessonID, progress.LastAttempt.AttemptID,
			progress.LastAttempt.At.Format(time.RFC3339Nano)); err != nil {
			return err
		}
	}
	return nil
}

// InsertAttempt stores an attempt with its error map and evicts history
// beyond keep, oldest first.
func (s *Store) InsertAttempt(ctx context.Context, attempt model.Attempt, keep int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollbackOnErr(tx, &err)

	if err = insertAttemptTx(ctx, tx, attempt); err != nil {
		return err
	}
	if keep > 0 {
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM attempts WHERE lesson_id = ? AND rowid NOT IN (
				SELECT rowid FROM attempts WHERE lesson_id = ? ORDER BY rowid DESC LIMIT ?
			)`, attempt.LessonID, attempt.LessonID, keep); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM attempt_errors WHERE attempt_id NOT IN (SELECT id FROM attempts)`); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertAttemptTx(ctx context.Context, tx *sql.Tx, attempt model.Attempt) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO attempts (id, lesson_id, at, duration_ms, correct, total_keystrokes,
			text_length, wpm, acc, stars, raw_input, max_combo, mistakes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		attempt.ID, attempt.LessonID, attempt.At.Format(time.RFC3339Nano),
		attempt.DurationMs, attempt.Correct, attempt.TotalKeystrokes,
		attempt.TextLength, attempt.WPM, attempt.Acc, attempt.Stars,
		attempt.RawInput, attempt.MaxCombo, attempt.Mistakes); err != nil {
		return err
	}
	for char, count := range attempt.Errors {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO attempt_errors (attempt_id, char, count) VALUES (?, ?, ?)`,
			attempt.ID, char, count); err != nil {
			return err
		}
	}
	return nil
}

// Replace swaps the entire profile in one transaction. Used by import.
func (s *Store) Replace(ctx context.Context, state model.State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollbackOnErr(tx, &err)

	if err = wipeTx(ctx, tx); err != nil {
		return err
	}
	penalty := 0
	if state.Settings.BackspacePenalty {
		penalty = 1
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO settings (id, target_accuracy, target_wpm, backspace_penalty) VALUES (1, ?, ?, ?)`,
		state.Settings.TargetAccuracy, state.Settings.TargetWpm, penalty); err != nil {
		return err
	}
	if err = s.writeProgress(ctx, tx, state.Progress); err != nil {
		return err
	}
	for _, history := range state.Attempts {
		for _, attempt := range history {
			if err = insertAttemptTx(ctx, tx, attempt); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// Reset wipes all persisted state.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollbackOnErr(tx, &err)

	if err = wipeTx(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func wipeTx(ctx context.Context, tx *sql.Tx) error {
	for _, stmt := range []string{
		`DELETE FROM settings`,
		`DELETE FROM unlocked_lessons`,
		`DELETE FROM best_scores`,
		`DELETE FROM last_attempt`,
		`DELETE FROM attempts`,
		`DELETE FROM attempt_errors`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func rollbackOnErr(tx *sql.Tx, err *error) {
	if *err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			// Best-effort rollback.
			_ = rerr
		}
	}
}

func closeRows(rows *sql.Rows) {
	if cerr := rows.Close(); cerr != nil {
		// Best-effort rows close.
		_ = cerr
	}
}
