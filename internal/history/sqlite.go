// SPDX-License-Identifier: Apache-2.0

package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store persists prediction records in SQLite.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (and if needed creates) the database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS predictions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		risk_level TEXT NOT NULL,
		risk_score REAL NOT NULL,
		confidence REAL NOT NULL,
		prediction TEXT NOT NULL,
		explanation TEXT DEFAULT '',
		recommendations TEXT DEFAULT '[]',
		patient_age REAL,
		patient_gender TEXT,
		resting_bp REAL,
		cholesterol REAL,
		blood_sugar_fasting INTEGER,
		max_heart_rate REAL,
		exercise_induced_angina INTEGER,
		oldpeak REAL,
		st_slope TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_predictions_user ON predictions(user_id);
	CREATE INDEX IF NOT EXISTS idx_predictions_created ON predictions(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Save stores a record, assigning an ID and timestamp when absent.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if rec.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	recs, err := json.Marshal(rec.Recommendations)
	if err != nil {
		return fmt.Errorf("failed to encode recommendations: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO predictions (
			id, user_id, created_at, risk_level, risk_score, confidence,
			prediction, explanation, recommendations, patient_age,
			patient_gender, resting_bp, cholesterol, blood_sugar_fasting,
			max_heart_rate, exercise_induced_angina, oldpeak, st_slope
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.CreatedAt, rec.RiskLevel, rec.RiskScore,
		rec.Confidence, rec.Prediction, rec.Explanation, string(recs),
		rec.PatientAge, rec.PatientGender, rec.RestingBP, rec.Cholesterol,
		boolToInt(rec.FastingBloodSugar), rec.MaxHeartRate,
		boolToInt(rec.ExerciseInducedAngina), rec.OldPeak, rec.STSlope,
	)
	if err != nil {
		return fmt.Errorf("failed to save prediction: %w", err)
	}
	return nil
}

// List returns up to limit records for a user, newest first.
func (s *Store) List(ctx context.Context, userID string, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, created_at, risk_level, risk_score, confidence,
			prediction, explanation, recommendations, patient_age,
			patient_gender, resting_bp, cholesterol, blood_sugar_fasting,
			max_heart_rate, exercise_induced_angina, oldpeak, st_slope
		FROM predictions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate predictions: %w", err)
	}
	return out, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// scanner is the common subset of sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	rec := &Record{}
	var recsJSON string
	var fbs, angina int

	err := s.Scan(
		&rec.ID, &rec.UserID, &rec.CreatedAt, &rec.RiskLevel, &rec.RiskScore,
		&rec.Confidence, &rec.Prediction, &rec.Explanation, &recsJSON,
		&rec.PatientAge, &rec.PatientGender, &rec.RestingBP, &rec.Cholesterol,
		&fbs, &rec.MaxHeartRate, &angina, &rec.OldPeak, &rec.STSlope,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan prediction: %w", err)
	}
	if err := json.Unmarshal([]byte(recsJSON), &rec.Recommendations); err != nil {
		rec.Recommendations = nil
	}
	rec.FastingBloodSugar = fbs != 0
	rec.ExerciseInducedAngina = angina != 0
	return rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
