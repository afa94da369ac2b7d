// Package store persists user custom sounds and nuclear challenge attempt
// history in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver.

	"daybell/internal/domain"
)

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %q: %w", path, err)
	}

	store := &Store{db: db}
	if err := store.createSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS custom_sounds (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		file_url TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_custom_sounds_user ON custom_sounds(user_id);

	CREATE TABLE IF NOT EXISTS challenge_attempts (
		id TEXT PRIMARY KEY,
		alarm_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		challenge_id TEXT NOT NULL,
		challenge_type TEXT NOT NULL,
		successful INTEGER NOT NULL,
		time_to_complete_ms INTEGER NOT NULL,
		hints_used INTEGER NOT NULL,
		errors_made INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_challenge_attempts_alarm ON challenge_attempts(alarm_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// GetUserCustomSounds lists a user's uploaded sounds, newest first.
func (s *Store) GetUserCustomSounds(ctx context.Context, userID string) ([]domain.CustomSound, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, file_url, created_at
		FROM custom_sounds
		WHERE user_id = ?
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query custom sounds: %w", err)
	}
	defer rows.Close()

	var sounds []domain.CustomSound
	for rows.Next() {
		var sound domain.CustomSound
		if err := rows.Scan(&sound.ID, &sound.UserID, &sound.Name, &sound.FileURL, &sound.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan custom sound: %w", err)
		}
		sounds = append(sounds, sound)
	}
	return sounds, rows.Err()
}

// SaveCustomSound inserts or replaces a custom sound. A missing ID or
// timestamp is filled in.
func (s *Store) SaveCustomSound(ctx context.Context, sound domain.CustomSound) error {
	if sound.ID == "" {
		sound.ID = uuid.NewString()
	}
	if sound.CreatedAt.IsZero() {
		sound.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO custom_sounds (id, user_id, name, file_url, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		sound.ID, sound.UserID, sound.Name, sound.FileURL, sound.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save custom sound: %w", err)
	}
	return nil
}

// RecordChallengeAttempt appends one attempt history row.
func (s *Store) RecordChallengeAttempt(ctx context.Context, record domain.ChallengeAttemptRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO challenge_attempts
			(id, alarm_id, session_id, challenge_id, challenge_type, successful,
			 time_to_complete_ms, hints_used, errors_made, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.AlarmID, record.SessionID, record.ChallengeID,
		string(record.ChallengeType), record.Successful,
		record.TimeToComplete.Milliseconds(), record.HintsUsed, record.ErrorsMade,
		record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record challenge attempt: %w", err)
	}
	return nil
}

// ListChallengeAttempts returns the attempt history for one alarm, newest
// first.
func (s *Store) ListChallengeAttempts(ctx context.Context, alarmID string) ([]domain.ChallengeAttemptRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, alarm_id, session_id, challenge_id, challenge_type, successful,
		       time_to_complete_ms, hints_used, errors_made, created_at
		FROM challenge_attempts
		WHERE alarm_id = ?
		ORDER BY created_at DESC`, alarmID)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenge attempts: %w", err)
	}
	defer rows.Close()

	var records []domain.ChallengeAttemptRecord
	for rows.Next() {
		var record domain.ChallengeAttemptRecord
		var challengeType string
		var millis int64
		if err := rows.Scan(&record.ID, &record.AlarmID, &record.SessionID,
			&record.ChallengeID, &challengeType, &record.Successful,
			&millis, &record.HintsUsed, &record.ErrorsMade, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan challenge attempt: %w", err)
		}
		record.ChallengeType = domain.ChallengeType(challengeType)
		record.TimeToComplete = time.Duration(millis) * time.Millisecond
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
