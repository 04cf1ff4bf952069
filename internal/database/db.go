package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dialwise/calltime-predictor/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ContactRecord is a stored contact the notifier predicts call windows for.
type ContactRecord struct {
	ID         int64
	Label      string
	DayOfWeek  int
	HourOfDay  int
	AnswerRate float64
	NotifiedAt time.Time
}

// New creates a new database connection
func New(params ConnectionParams) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// The database often comes up after the service in container setups,
	// so the first ping retries with backoff.
	pingStrategy := backoff.NewExponentialBackOff()
	pingStrategy.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(db.Ping, pingStrategy); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	// Audit trail of served predictions, one row per input row. The
	// answered flag stays NULL until a dialer reports the call outcome.
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS predictions (
			id BIGSERIAL PRIMARY KEY,
			day_of_week DOUBLE PRECISION NOT NULL,
			hour_of_day DOUBLE PRECISION NOT NULL,
			previous_answer_rate DOUBLE PRECISION NOT NULL,
			optimal_hour INT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			answered BOOLEAN,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Add the outcome column if it doesn't exist (for existing databases)
	_, _ = db.Exec(`
		ALTER TABLE predictions
		ADD COLUMN IF NOT EXISTS answered BOOLEAN
	`)

	// Contacts the notifier builds call-window digests for
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS contacts (
			id BIGSERIAL PRIMARY KEY,
			label TEXT NOT NULL,
			day_of_week INT NOT NULL DEFAULT 0,
			hour_of_day INT NOT NULL DEFAULT 12,
			answer_rate DOUBLE PRECISION NOT NULL DEFAULT 0.5,
			notified_at TIMESTAMP
		)
	`)

	return err
}

// RecordPredictions stores one audit row per served prediction. The rows
// arrive index-aligned, the same ordering the response was built with.
func (db *DB) RecordPredictions(matrix models.FeatureMatrix, resp models.ResponsePayload) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}

	now := time.Now()
	for i, row := range matrix {
		_, err := tx.Exec(`
			INSERT INTO predictions (
				day_of_week, hour_of_day, previous_answer_rate,
				optimal_hour, confidence, created_at
			) VALUES ($1, $2, $3, $4, $5, $6)
		`,
			row[models.FeatureDayOfWeek],
			row[models.FeatureHourOfDay],
			row[models.FeaturePreviousAnswerRate],
			resp.OptimalHours[i],
			resp.Confidence[i],
			now,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("inserting prediction row %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// RecordOutcome stores whether a call placed off a served prediction was
// answered. The id is the audit row's primary key.
func (db *DB) RecordOutcome(id int64, answered bool) error {
	res, err := db.Exec(`UPDATE predictions SET answered = $1 WHERE id = $2`, answered, id)
	if err != nil {
		return fmt.Errorf("recording outcome for prediction %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("prediction %d not found", id)
	}
	return nil
}

// AnswerRateKey is the contact key observed answer rates are grouped by.
type AnswerRateKey struct {
	DayOfWeek int
	HourOfDay int
}

// ObservedAnswerRates aggregates recorded call outcomes into an answer rate
// per (day_of_week, hour_of_day) key. Predictions without a reported
// outcome are excluded.
func (db *DB) ObservedAnswerRates() (map[AnswerRateKey]float64, error) {
	rows, err := db.Query(`
		SELECT
			day_of_week::int,
			hour_of_day::int,
			AVG(CASE WHEN answered THEN 1.0 ELSE 0.0 END)
		FROM predictions
		WHERE answered IS NOT NULL
		GROUP BY 1, 2
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rates := make(map[AnswerRateKey]float64)
	for rows.Next() {
		var key AnswerRateKey
		var rate float64
		if err := rows.Scan(&key.DayOfWeek, &key.HourOfDay, &rate); err != nil {
			return nil, err
		}
		rates[key] = rate
	}
	return rates, rows.Err()
}

// PendingContacts returns contacts not yet notified within the given window,
// oldest first.
func (db *DB) PendingContacts(window time.Duration) ([]ContactRecord, error) {
	rows, err := db.Query(`
		SELECT id, label, day_of_week, hour_of_day, answer_rate
		FROM contacts
		WHERE notified_at IS NULL OR notified_at < $1
		ORDER BY id
	`, time.Now().Add(-window))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []ContactRecord
	for rows.Next() {
		var c ContactRecord
		if err := rows.Scan(&c.ID, &c.Label, &c.DayOfWeek, &c.HourOfDay, &c.AnswerRate); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// MarkNotified stamps the given contacts as covered by a digest.
func (db *DB) MarkNotified(ids []int64) error {
	now := time.Now()
	for _, id := range ids {
		if _, err := db.Exec(`UPDATE contacts SET notified_at = $1 WHERE id = $2`, now, id); err != nil {
			return fmt.Errorf("marking contact %d: %w", id, err)
		}
	}
	return nil
}
